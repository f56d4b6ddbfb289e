package report

import (
	"io"

	"gopkg.in/yaml.v3"
)

type yamlRenderer struct{}

func (yamlRenderer) Format() string { return "yaml" }

func (yamlRenderer) Render(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(r)); err != nil {
		return err
	}
	return enc.Close()
}
