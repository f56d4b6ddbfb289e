// Package snapshot persists a symbol table as an .apisnap file so a
// revision can be diffed later without its sources.
//
// Layout: the 8-byte magic "APISNAP\x01", a 32-byte BLAKE2b-256 digest of
// the uncompressed payload, then the payload as a zstd stream. The payload
// is the deterministic JSON encoding of the table, so equal tables produce
// equal files.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"

	"apidiff/internal/decl"
	"apidiff/internal/errors"
	"apidiff/internal/output"
	"apidiff/internal/symbols"
)

// Ext is the file extension recognised as a snapshot source.
const Ext = ".apisnap"

const formatVersion = 1

var magic = []byte("APISNAP\x01")

// Header describes a snapshot without exposing its classes.
type Header struct {
	Revision    string
	Fingerprint string // hex BLAKE2b-256 of the payload
	Classes     int
}

type document struct {
	Format   int           `json:"format"`
	Revision string        `json:"revision"`
	Classes  []classRecord `json:"classes"`
}

type classRecord struct {
	FQN        string         `json:"fqn"`
	Kind       string         `json:"kind"`
	Modifiers  []string       `json:"modifiers,omitempty"`
	Visibility string         `json:"visibility"`
	Deprecated bool           `json:"deprecated,omitempty"`
	Enclosing  string         `json:"enclosing,omitempty"`
	Nested     []string       `json:"nested,omitempty"`
	Fields     []fieldRecord  `json:"fields,omitempty"`
	Methods    []methodRecord `json:"methods,omitempty"`
}

type fieldRecord struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	TypeFull   string   `json:"typeFull"`
	Deprecated bool     `json:"deprecated,omitempty"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Visibility string   `json:"visibility"`
}

type methodRecord struct {
	Name           string        `json:"name"`
	ReturnType     string        `json:"returnType"`
	ReturnTypeFull string        `json:"returnTypeFull"`
	Params         []paramRecord `json:"params,omitempty"`
	Deprecated     bool          `json:"deprecated,omitempty"`
	Modifiers      []string      `json:"modifiers,omitempty"`
	Visibility     string        `json:"visibility"`
	TypeParams     int           `json:"typeParams,omitempty"`
	Constructor    bool          `json:"constructor,omitempty"`
}

type paramRecord struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	TypeFull string `json:"typeFull"`
}

// Encode writes t to w.
func Encode(w io.Writer, t *symbols.Table) (Header, error) {
	payload, err := output.DeterministicEncode(toDocument(t))
	if err != nil {
		return Header{}, errors.New(errors.InternalError, "failed to encode snapshot", err)
	}
	sum := blake2b.Sum256(payload)

	if _, err := w.Write(magic); err != nil {
		return Header{}, err
	}
	if _, err := w.Write(sum[:]); err != nil {
		return Header{}, err
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return Header{}, err
	}
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return Header{}, err
	}
	if err := zw.Close(); err != nil {
		return Header{}, err
	}
	return Header{Revision: t.Revision, Fingerprint: hex.EncodeToString(sum[:]), Classes: t.Len()}, nil
}

// Decode reads a snapshot from r and returns the frozen table it holds.
// A bad magic, digest mismatch or corrupt stream yields INVALID_INPUT.
func Decode(r io.Reader) (*symbols.Table, Header, error) {
	prefix := make([]byte, len(magic)+blake2b.Size256)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, Header{}, invalid("snapshot is truncated", err)
	}
	if !bytes.Equal(prefix[:len(magic)], magic) {
		return nil, Header{}, invalid("not an apidiff snapshot", nil)
	}
	want := prefix[len(magic):]

	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, Header{}, invalid("snapshot body is not zstd", err)
	}
	defer zr.Close()
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, Header{}, invalid("snapshot body is corrupt", err)
	}
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(sum[:], want) {
		return nil, Header{}, invalid("snapshot fingerprint mismatch", nil)
	}

	var doc document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, Header{}, invalid("snapshot payload is malformed", err)
	}
	if doc.Format != formatVersion {
		return nil, Header{}, invalid(fmt.Sprintf("unsupported snapshot format %d", doc.Format), nil)
	}
	t := fromDocument(doc)
	t.Freeze()
	return t, Header{Revision: doc.Revision, Fingerprint: hex.EncodeToString(sum[:]), Classes: t.Len()}, nil
}

// Write stores t at path, replacing any existing file.
func Write(path string, t *symbols.Table) (Header, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Header{}, errors.New(errors.StorageFailure, "failed to create snapshot directory", err).WithPath(path)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return Header{}, errors.New(errors.StorageFailure, "failed to create snapshot", err).WithPath(path)
	}
	h, err := Encode(f, t)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return Header{}, errors.New(errors.StorageFailure, "failed to write snapshot", err).WithPath(path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return Header{}, errors.New(errors.StorageFailure, "failed to write snapshot", err).WithPath(path)
	}
	return h, nil
}

// Read loads the snapshot at path.
func Read(path string) (*symbols.Table, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, errors.Missing("snapshot", path, err)
	}
	defer f.Close()
	t, h, err := Decode(f)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, Header{}, e.WithPath(path)
		}
		return nil, Header{}, err
	}
	return t, h, nil
}

func invalid(msg string, cause error) *errors.Error {
	return errors.New(errors.InvalidInput, msg, cause)
}

func toDocument(t *symbols.Table) document {
	doc := document{Format: formatVersion, Revision: t.Revision, Classes: []classRecord{}}
	for _, c := range t.Classes() {
		rec := classRecord{
			FQN:        c.FQN,
			Kind:       string(c.Kind),
			Modifiers:  c.Modifiers,
			Visibility: string(c.Visibility),
			Deprecated: c.Deprecated,
			Enclosing:  c.EnclosingFQN,
			Nested:     c.Nested,
		}
		for _, name := range c.FieldNames() {
			f := c.Fields[name]
			rec.Fields = append(rec.Fields, fieldRecord{
				Name:       f.Name,
				Type:       f.Type,
				TypeFull:   f.TypeFull,
				Deprecated: f.Deprecated,
				Modifiers:  f.Modifiers,
				Visibility: string(f.Visibility),
			})
		}
		// Name buckets keep losing overloads, so the table rebuilds exactly.
		for _, name := range methodNames(c) {
			for _, m := range c.MethodsByName[name] {
				rec.Methods = append(rec.Methods, toMethodRecord(m))
			}
		}
		doc.Classes = append(doc.Classes, rec)
	}
	return doc
}

func toMethodRecord(m *symbols.MethodSymbol) methodRecord {
	rec := methodRecord{
		Name:           m.Name,
		ReturnType:     m.ReturnType,
		ReturnTypeFull: m.ReturnTypeFull,
		Deprecated:     m.Deprecated,
		Modifiers:      m.Modifiers,
		Visibility:     string(m.Visibility),
		TypeParams:     m.TypeParamCount,
		Constructor:    m.Constructor,
	}
	for _, p := range m.Params {
		rec.Params = append(rec.Params, paramRecord(p))
	}
	return rec
}

func fromDocument(doc document) *symbols.Table {
	t := symbols.NewTable(doc.Revision)
	for _, rec := range doc.Classes {
		c := &symbols.ClassSymbol{
			FQN:           rec.FQN,
			Kind:          decl.TypeKind(rec.Kind),
			Modifiers:     rec.Modifiers,
			Visibility:    symbols.Visibility(rec.Visibility),
			Deprecated:    rec.Deprecated,
			EnclosingFQN:  rec.Enclosing,
			Nested:        rec.Nested,
			Fields:        make(map[string]*symbols.FieldSymbol, len(rec.Fields)),
			MethodsByName: make(map[string][]*symbols.MethodSymbol),
		}
		for _, f := range rec.Fields {
			c.Fields[f.Name] = &symbols.FieldSymbol{
				Name:       f.Name,
				Type:       f.Type,
				TypeFull:   f.TypeFull,
				Deprecated: f.Deprecated,
				Modifiers:  f.Modifiers,
				Visibility: symbols.Visibility(f.Visibility),
			}
		}
		for _, m := range rec.Methods {
			ms := &symbols.MethodSymbol{
				Name:           m.Name,
				FQN:            rec.FQN,
				ReturnType:     m.ReturnType,
				ReturnTypeFull: m.ReturnTypeFull,
				Deprecated:     m.Deprecated,
				Modifiers:      m.Modifiers,
				Visibility:     symbols.Visibility(m.Visibility),
				TypeParamCount: m.TypeParams,
				Constructor:    m.Constructor,
			}
			for _, p := range m.Params {
				ms.Params = append(ms.Params, symbols.Param(p))
			}
			c.MethodsByName[m.Name] = append(c.MethodsByName[m.Name], ms)
		}
		t.AddClass(c)
	}
	return t
}

func methodNames(c *symbols.ClassSymbol) []string {
	names := make([]string, 0, len(c.MethodsByName))
	for n := range c.MethodsByName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
