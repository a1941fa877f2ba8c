package dissect

import (
	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/danmuck/fastdissect/internal/fast/template"
)

// Node is one decoded field. Group nodes hold their fields in Children.
// Sequence nodes carry the decoded length in Data and one element group
// node per iteration in Children.
type Node struct {
	Type     *field.Type
	Data     field.Data
	Children []*Node
}

// Length is the element count of a sequence node, zero for other kinds.
func (n *Node) Length() int {
	if n.Type == nil || n.Type.Kind != field.KindSequence || !n.Data.Exists() {
		return 0
	}
	return int(n.Data.Value.Uint32())
}

// Walk visits n and its descendants depth first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Message is one decoded message. Err is set when decoding stopped before
// the template was complete; the fields decoded up to that point are kept.
type Message struct {
	Offset     int
	Len        int
	TemplateID uint32
	Template   *template.Template
	Fields     []*Node
	Err        *field.DynamicError
}

// Name is the template name, or "" when the template is unknown.
func (m *Message) Name() string {
	if m.Template == nil {
		return ""
	}
	return m.Template.Name
}

// Errors collects every field level error of m in field order.
func (m *Message) Errors() []*field.DynamicError {
	var out []*field.DynamicError
	for _, n := range m.Fields {
		n.Walk(func(x *Node) {
			if x.Data.Err != nil {
				out = append(out, x.Data.Err)
			}
		})
	}
	return out
}
