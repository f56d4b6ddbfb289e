package report

import (
	"io"

	"apidiff/internal/output"
)

type jsonRenderer struct{}

func (jsonRenderer) Format() string { return "json" }

func (jsonRenderer) Render(w io.Writer, r *Report) error {
	data, err := output.DeterministicEncodeIndented(newDocument(r), "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
