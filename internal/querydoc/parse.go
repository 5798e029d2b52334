package querydoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/linqsql/internal/queryir"
)

// Format is a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unknown query document extension %q (want .yaml, .yml, .json or .cue)", filepath.Ext(path))
	}
}

// Load reads and builds the query document at path.
func Load(path string) (*queryir.Query, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query document: %w", err)
	}
	return Parse(data, format, path)
}

// Parse decodes and builds a query document. filename is used in CUE
// error positions and may be empty.
func Parse(data []byte, format Format, filename string) (*queryir.Query, error) {
	doc, err := Decode(data, format, filename)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Decode reads a document without building it.
func Decode(data []byte, format Format, filename string) (*Query, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(data)
	case FormatJSON:
		return decodeJSON(data)
	case FormatCUE:
		return decodeCUE(data, filename)
	default:
		return nil, fmt.Errorf("unknown query document format %q", format)
	}
}

func decodeYAML(data []byte) (*Query, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Query
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DocumentError{Path: "query", Message: "document is empty"}
		}
		return nil, fmt.Errorf("parse yaml query document: %w", err)
	}
	return &doc, nil
}

func decodeJSON(data []byte) (*Query, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var doc Query
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DocumentError{Path: "query", Message: "document is empty"}
		}
		return nil, fmt.Errorf("parse json query document: %w", err)
	}
	return &doc, nil
}

// decodeCUE evaluates the document and decodes its concrete JSON form, so
// CUE documents may use definitions, hidden fields and references.
func decodeCUE(data []byte, filename string) (*Query, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return decodeJSON(raw)
}
