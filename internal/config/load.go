package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// ParseError reports a document that could not be decoded or failed the
// schema. Line and Column are zero when the decoder gave no position.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadFile reads a configuration document. The format is chosen by
// extension: .yaml and .yml are YAML, .cue is CUE.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(path, data)
	case ".cue":
		return ParseCUE(path, data)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q (want .yaml, .yml or .cue)", path, filepath.Ext(path))
	}
}

// ParseYAML decodes a YAML document. Unknown fields are errors. An empty
// document decodes to an empty Document.
func ParseYAML(name string, data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{File: name, Message: err.Error(), Err: err}
	}
	return &doc, nil
}

// ParseCUE compiles a CUE document, unifies it with the #Document schema,
// and decodes the concrete result.
func ParseCUE(name string, data []byte) (*Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Document"))

	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, cueParseError(name, err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueParseError(name, err)
	}

	var doc Document
	if err := unified.Decode(&doc); err != nil {
		return nil, cueParseError(name, err)
	}
	return &doc, nil
}

// cueParseError keeps the position of the first CUE error.
func cueParseError(name string, err error) error {
	pe := &ParseError{File: name, Message: err.Error(), Err: err}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return pe
	}
	first := errs[0]
	pe.Message = first.Error()
	if positions := cueerrors.Positions(first); len(positions) > 0 && positions[0].IsValid() {
		pe.Line = positions[0].Line()
		pe.Column = positions[0].Column()
	}
	return pe
}

// LoadFiles loads each path in order and merges the results.
func LoadFiles(paths ...string) (*Document, error) {
	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return Merge(docs...), nil
}

// Merge concatenates the rule, mission and achievement sections of docs.
// The last non-nil settings block wins. Duplicate ids are left for the
// compiler to report.
func Merge(docs ...*Document) *Document {
	out := &Document{}
	for _, d := range docs {
		if d == nil {
			continue
		}
		if d.Settings != nil {
			out.Settings = d.Settings
		}
		out.Rules = append(out.Rules, d.Rules...)
		out.Missions = append(out.Missions, d.Missions...)
		out.Achievements = append(out.Achievements, d.Achievements...)
	}
	return out
}
