package template

import (
	"fmt"

	"github.com/danmuck/fastdissect/internal/fast/field"
)

// Prepare fills in the derived attributes of every field of t and validates
// the tree:
//   - template id, type name, dictionary (inherited, "global" at the root)
//   - keys (the field name; synthetic parts use <parent key>.<part>)
//   - presence map requirements of groups
//
// The first problem found is returned as a *field.StaticError.
func Prepare(t *Template) error {
	if t.Root == nil {
		return &field.StaticError{Code: field.CodeS1, Template: t.Name, Detail: ErrNoRoot.Error()}
	}
	root := t.Root
	root.Kind = field.KindGroup
	root.Mandatory = true
	root.ID = t.ID
	if root.Name == "" {
		root.Name = t.Name
	}
	dict := t.Dictionary
	if dict == "" {
		dict = field.DictionaryGlobal
	}
	typeName := t.TypeName
	if typeName == "" {
		typeName = t.Name
	}
	p := preparer{template: t, typeName: typeName}
	if err := p.walk(root, nil, dict); err != nil {
		return err
	}
	// the message always starts with a presence map
	root.NeedsPMap = true
	return nil
}

type preparer struct {
	template *Template
	typeName string
}

func (p *preparer) fail(code field.Code, ft *field.Type, detail string) error {
	return &field.StaticError{Code: code, Template: p.template.Name, Field: ft.Label(), Detail: detail}
}

// walk prepares ft below parent, inheriting dict when ft names none.
func (p *preparer) walk(ft *field.Type, parent *field.Type, dict string) error {
	ft.TemplateID = p.template.ID
	if ft.TypeName == "" {
		ft.TypeName = p.typeName
	}
	if ft.Dictionary == "" {
		ft.Dictionary = dict
	}
	if ft.Key == "" {
		switch {
		case ft.Part() != "" && parent != nil:
			ft.Key = parent.Key + "." + ft.Part()
		default:
			ft.Key = ft.Name
		}
	}
	if err := p.validate(ft); err != nil {
		return err
	}

	switch ft.Kind {
	case field.KindDecimal:
		exp, mant := ft.Exponent(), ft.Mantissa()
		exp.Mandatory = ft.Mandatory
		mant.Mandatory = true
	case field.KindSequence:
		ft.Length().Mandatory = ft.Mandatory
		elem := ft.Element()
		elem.Mandatory = true
		elem.Operator = field.OpNone
	}
	for _, child := range ft.Children {
		if err := p.walk(child, ft, ft.Dictionary); err != nil {
			return err
		}
	}
	if ft.Kind == field.KindGroup {
		ft.NeedsPMap = needsPMap(ft)
	}
	return nil
}

// needsPMap reports whether any field drawing on g's presence map requires a
// bit. Nested groups own their own map, but an optional nested group still
// takes a bit from g.
func needsPMap(g *field.Type) bool {
	var visit func(ft *field.Type) bool
	visit = func(ft *field.Type) bool {
		if ft.RequiresPMapBit() {
			return true
		}
		if ft.Kind == field.KindGroup {
			return false
		}
		for _, c := range ft.Children {
			if visit(c) {
				return true
			}
		}
		return false
	}
	for _, c := range g.Children {
		if visit(c) {
			return true
		}
	}
	return false
}

func (p *preparer) validate(ft *field.Type) error {
	switch {
	case ft.Kind == field.KindInvalid:
		return p.fail(field.CodeS1, ft, "missing field type")
	case ft.Name == "" && ft.Part() == "":
		return p.fail(field.CodeS1, ft, "missing field name")
	case ft.Kind == field.KindDecimal && (ft.Exponent() == nil || ft.Mantissa() == nil || len(ft.Children) != 2):
		return p.fail(field.CodeS1, ft, "decimal needs exactly an exponent and a mantissa")
	case ft.Kind == field.KindSequence && (ft.Length() == nil || ft.Element() == nil || len(ft.Children) != 2):
		return p.fail(field.CodeS1, ft, "sequence needs a length and an element group")
	case ft.Kind == field.KindSequence && (ft.Length().Kind != field.KindUInt32 || ft.Element().Kind != field.KindGroup):
		return p.fail(field.CodeS1, ft, "sequence length must be uInt32 and its element a group")
	case !ft.Kind.IsComplex() && ft.Kind != field.KindDecimal && len(ft.Children) > 0:
		return p.fail(field.CodeS1, ft, fmt.Sprintf("%s field cannot have children", ft.Kind))
	}
	if !ft.Operator.Applicable(ft.Kind) {
		return p.fail(field.CodeS2, ft, fmt.Sprintf("%s on %s", ft.Operator, ft.Kind))
	}
	if ft.HasInitial && ft.Initial.Kind() != ft.Kind {
		return p.fail(field.CodeS3, ft, fmt.Sprintf("initial value is %s, field is %s", ft.Initial.Kind(), ft.Kind))
	}
	if ft.HasInitial && ft.Kind == field.KindDecimal {
		if e := ft.Initial.Exponent(); e < field.MinExponent || e > field.MaxExponent {
			return p.fail(field.CodeS3, ft, fmt.Sprintf("exponent %d out of range", e))
		}
	}
	if ft.Operator == field.OpConstant && !ft.HasInitial {
		return p.fail(field.CodeS4, ft, "")
	}
	if ft.Operator == field.OpDefault && ft.Mandatory && !ft.HasInitial {
		return p.fail(field.CodeS5, ft, "")
	}
	return nil
}
