package field

// Dictionary scope names with special meaning.
const (
	DictionaryGlobal   = "global"
	DictionaryTemplate = "template"
	DictionaryType     = "type"
)

// Synthetic child parts.
const (
	PartExponent = "exponent"
	PartMantissa = "mantissa"
	PartLength   = "length"
	PartElement  = "element"
)

// Type describes one field of a template. A Type tree is built once, then
// prepared by the template package and shared read-only by every dissection.
type Type struct {
	ID         uint32
	TemplateID uint32
	Name       string
	Key        string
	Kind       Kind
	Operator   Operator
	Mandatory  bool
	Dictionary string
	// TypeName keys the "type" dictionary scope. Defaults to the template name.
	TypeName   string
	Initial    Value
	HasInitial bool
	Children   []*Type
	// NeedsPMap is set on groups whose children consume presence bits.
	NeedsPMap  bool

	part string
}

// Scalar builds a mandatory field without an operator.
func Scalar(kind Kind, name string, id uint32) *Type {
	return &Type{ID: id, Name: name, Kind: kind, Mandatory: true}
}

func Group(name string, id uint32, children ...*Type) *Type {
	return &Type{ID: id, Name: name, Kind: KindGroup, Mandatory: true, Children: children}
}

// Decimal builds a decimal with exponent and mantissa components. Component
// operators apply only when the decimal itself has none.
func Decimal(name string, id uint32) *Type {
	exp := Scalar(KindInt32, name+"."+PartExponent, 0)
	exp.part = PartExponent
	mant := Scalar(KindInt64, name+"."+PartMantissa, 0)
	mant.part = PartMantissa
	return &Type{
		ID:        id,
		Name:      name,
		Kind:      KindDecimal,
		Mandatory: true,
		Children:  []*Type{exp, mant},
	}
}

// Sequence builds a sequence whose elements hold children. The length field
// and the element group are synthetic.
func Sequence(name string, id uint32, children ...*Type) *Type {
	length := Scalar(KindUInt32, name+"."+PartLength, 0)
	length.part = PartLength
	elem := Group(name+"."+PartElement, 0, children...)
	elem.part = PartElement
	return &Type{
		ID:        id,
		Name:      name,
		Kind:      KindSequence,
		Mandatory: true,
		Children:  []*Type{length, elem},
	}
}

func (t *Type) Op(op Operator) *Type {
	t.Operator = op
	return t
}

// Optional marks t optional. For decimals the exponent carries the null and
// for sequences the length does.
func (t *Type) Optional() *Type {
	t.Mandatory = false
	switch t.Kind {
	case KindDecimal:
		if exp := t.Exponent(); exp != nil {
			exp.Mandatory = false
		}
	case KindSequence:
		if length := t.Length(); length != nil {
			length.Mandatory = false
		}
	}
	return t
}

func (t *Type) WithInitial(v Value) *Type {
	t.Initial = v
	t.HasInitial = true
	return t
}

func (t *Type) WithKey(key string) *Type {
	t.Key = key
	return t
}

func (t *Type) WithDictionary(name string) *Type {
	t.Dictionary = name
	return t
}

// Part names the synthetic role of t inside a decimal or sequence, or "".
func (t *Type) Part() string { return t.part }

func (t *Type) child(kind Kind, i int) *Type {
	if t.Kind != kind || len(t.Children) <= i {
		return nil
	}
	return t.Children[i]
}

func (t *Type) Exponent() *Type { return t.child(KindDecimal, 0) }
func (t *Type) Mantissa() *Type { return t.child(KindDecimal, 1) }
func (t *Type) Length() *Type   { return t.child(KindSequence, 0) }
func (t *Type) Element() *Type  { return t.child(KindSequence, 1) }

// Nullable reports whether the wire encoding of t reserves a null value.
// Optional constants use a presence bit instead.
func (t *Type) Nullable() bool {
	return !t.Mandatory && t.Operator != OpConstant
}

// RequiresPMapBit reports whether t consumes a bit of the enclosing
// presence map.
func (t *Type) RequiresPMapBit() bool {
	if t.Kind == KindGroup {
		return !t.Mandatory
	}
	switch t.Operator {
	case OpConstant:
		return !t.Mandatory
	case OpDefault, OpCopy, OpIncrement, OpTail:
		return true
	}
	return false
}

// UsesComponents reports whether a decimal is decoded through its exponent
// and mantissa operators rather than as a unit.
func (t *Type) UsesComponents() bool {
	return t.Kind == KindDecimal && t.Operator == OpNone
}

// Label is the display name of t.
func (t *Type) Label() string {
	if t.Name == "" {
		return "<unnamed>"
	}
	return t.Name
}
