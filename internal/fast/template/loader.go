package template

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/fastdissect/internal/fast/field"
	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var ErrFormat = errors.New("template: unsupported definition format")

// Definition is the on-disk form of a template set, shared by the YAML and
// JSON loaders.
type Definition struct {
	Templates []TemplateDef `yaml:"templates" json:"templates"`
}

type TemplateDef struct {
	ID         uint32     `yaml:"id" json:"id"`
	Name       string     `yaml:"name" json:"name"`
	Dictionary string     `yaml:"dictionary,omitempty" json:"dictionary,omitempty"`
	TypeName   string     `yaml:"type_name,omitempty" json:"type_name,omitempty"`
	Fields     []FieldDef `yaml:"fields" json:"fields"`
}

// FieldDef describes one field. Value is the initial value in text form.
// Exponent and Mantissa apply to decimals without an operator of their own;
// Length applies to sequences.
type FieldDef struct {
	Name       string        `yaml:"name" json:"name"`
	ID         uint32        `yaml:"id,omitempty" json:"id,omitempty"`
	Type       string        `yaml:"type" json:"type"`
	Operator   string        `yaml:"operator,omitempty" json:"operator,omitempty"`
	Presence   string        `yaml:"presence,omitempty" json:"presence,omitempty"`
	Value      *string       `yaml:"value,omitempty" json:"value,omitempty"`
	Key        string        `yaml:"key,omitempty" json:"key,omitempty"`
	Dictionary string        `yaml:"dictionary,omitempty" json:"dictionary,omitempty"`
	Exponent   *ComponentDef `yaml:"exponent,omitempty" json:"exponent,omitempty"`
	Mantissa   *ComponentDef `yaml:"mantissa,omitempty" json:"mantissa,omitempty"`
	Length     *ComponentDef `yaml:"length,omitempty" json:"length,omitempty"`
	Fields     []FieldDef    `yaml:"fields,omitempty" json:"fields,omitempty"`
}

type ComponentDef struct {
	Name       string  `yaml:"name,omitempty" json:"name,omitempty"`
	ID         uint32  `yaml:"id,omitempty" json:"id,omitempty"`
	Operator   string  `yaml:"operator,omitempty" json:"operator,omitempty"`
	Value      *string `yaml:"value,omitempty" json:"value,omitempty"`
	Key        string  `yaml:"key,omitempty" json:"key,omitempty"`
	Dictionary string  `yaml:"dictionary,omitempty" json:"dictionary,omitempty"`
}

// ParseYAML reads a YAML definition. Unknown keys are rejected.
func ParseYAML(r io.Reader) ([]*Template, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var def Definition
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("template: decode yaml: %w", err)
	}
	return def.ToTemplates()
}

// ParseJSON reads a JSON definition. Unknown keys are rejected.
func ParseJSON(r io.Reader) ([]*Template, error) {
	dec := j.NewDecoder(r)
	dec.DisallowUnknownFields()
	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("template: decode json: %w", err)
	}
	return def.ToTemplates()
}

// LoadFile reads the definition at path, choosing the format by extension,
// and builds a Set. Like Build, it returns the valid templates alongside the
// errors of the rejected ones.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("template: open %s: %w", path, err)
	}
	defer f.Close()

	var templates []*Template
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		templates, err = ParseYAML(f)
	case ".json":
		templates, err = ParseJSON(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormat, path)
	}
	if err != nil {
		return nil, err
	}
	return Build(templates...)
}

// LoadFiles merges the templates of several definition files into one Set.
func LoadFiles(paths ...string) (*Set, error) {
	s := NewSet()
	var errs []error
	for _, path := range paths {
		part, err := LoadFile(path)
		if err != nil {
			errs = append(errs, err)
		}
		if part == nil {
			continue
		}
		for _, id := range part.IDs() {
			t, _ := part.Lookup(id)
			if _, dup := s.byID[id]; dup {
				errs = append(errs, fmt.Errorf("%w: %d in %s", ErrDuplicateID, id, path))
				continue
			}
			s.byID[id] = t
		}
	}
	return s, errors.Join(errs...)
}

// ToTemplates converts the definition into unprepared templates.
func (d Definition) ToTemplates() ([]*Template, error) {
	out := make([]*Template, 0, len(d.Templates))
	for _, td := range d.Templates {
		fields := make([]*field.Type, 0, len(td.Fields))
		for _, fd := range td.Fields {
			ft, err := fd.build(td.Name)
			if err != nil {
				return nil, err
			}
			fields = append(fields, ft)
		}
		t := New(td.ID, td.Name, fields...)
		t.Dictionary = td.Dictionary
		t.TypeName = td.TypeName
		out = append(out, t)
	}
	return out, nil
}

func (fd FieldDef) build(tmpl string) (*field.Type, error) {
	fail := func(code field.Code, err error) error {
		return &field.StaticError{Code: code, Template: tmpl, Field: fd.Name, Detail: err.Error()}
	}
	kind, err := field.ParseKind(fd.Type)
	if err != nil {
		return nil, fail(field.CodeS1, err)
	}
	op, err := field.ParseOperator(fd.Operator)
	if err != nil {
		return nil, fail(field.CodeS2, err)
	}

	var ft *field.Type
	switch kind {
	case field.KindGroup, field.KindSequence:
		children := make([]*field.Type, 0, len(fd.Fields))
		for _, cd := range fd.Fields {
			child, err := cd.build(tmpl)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if kind == field.KindGroup {
			ft = field.Group(fd.Name, fd.ID, children...)
		} else {
			ft = field.Sequence(fd.Name, fd.ID, children...)
			if err := fd.Length.apply(ft.Length(), tmpl); err != nil {
				return nil, err
			}
		}
	case field.KindDecimal:
		ft = field.Decimal(fd.Name, fd.ID)
		if err := fd.Exponent.apply(ft.Exponent(), tmpl); err != nil {
			return nil, err
		}
		if err := fd.Mantissa.apply(ft.Mantissa(), tmpl); err != nil {
			return nil, err
		}
	default:
		ft = field.Scalar(kind, fd.Name, fd.ID)
	}
	ft.Op(op)
	ft.Key = fd.Key
	ft.Dictionary = fd.Dictionary
	switch strings.ToLower(fd.Presence) {
	case "", "mandatory":
	case "optional":
		ft.Optional()
	default:
		return nil, fail(field.CodeS1, fmt.Errorf("unknown presence %q", fd.Presence))
	}
	if fd.Value != nil {
		v, err := field.ParseValue(kind, *fd.Value)
		if err != nil {
			return nil, fail(field.CodeS3, err)
		}
		ft.WithInitial(v)
	}
	return ft, nil
}

// apply copies a component definition onto a synthetic field. A nil
// definition leaves the defaults in place.
func (cd *ComponentDef) apply(ft *field.Type, tmpl string) error {
	if cd == nil {
		return nil
	}
	fail := func(code field.Code, err error) error {
		return &field.StaticError{Code: code, Template: tmpl, Field: ft.Label(), Detail: err.Error()}
	}
	op, err := field.ParseOperator(cd.Operator)
	if err != nil {
		return fail(field.CodeS2, err)
	}
	ft.Op(op)
	if cd.Name != "" {
		ft.Name = cd.Name
	}
	ft.ID = cd.ID
	ft.Key = cd.Key
	ft.Dictionary = cd.Dictionary
	if cd.Value != nil {
		v, err := field.ParseValue(ft.Kind, *cd.Value)
		if err != nil {
			return fail(field.CodeS3, err)
		}
		ft.WithInitial(v)
	}
	return nil
}
