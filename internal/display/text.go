package display

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/fastdissect/internal/fast/dissect"
	"github.com/danmuck/fastdissect/internal/fast/field"
)

// Options controls how decoded messages are rendered.
type Options struct {
	// Scientific renders decimals as <mantissa>e<exponent>.
	Scientific bool
	// ShowEmpty includes optional fields that were absent.
	ShowEmpty      bool
	ShowDictionary bool
	ShowKey        bool
	ShowOperator   bool
	ShowMandatory  bool
	Indent         string
}

func DefaultOptions() Options {
	return Options{Scientific: true, ShowEmpty: true, Indent: "  "}
}

// Renderer writes decoded messages to an output.
type Renderer interface {
	Render(msgs []*dissect.Message) error
}

// Text renders messages as an indented field tree, one field per line.
type Text struct {
	w    io.Writer
	opts Options
}

func NewText(w io.Writer, opts Options) *Text {
	return &Text{w: w, opts: opts}
}

func (p *Text) Render(msgs []*dissect.Message) error {
	var b strings.Builder
	for _, m := range msgs {
		p.message(&b, m)
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Text) message(b *strings.Builder, m *dissect.Message) {
	if m.Template == nil {
		fmt.Fprintf(b, "ERROR - tid: %d: %s\n", m.TemplateID, m.Err)
		return
	}
	fmt.Fprintf(b, "%s - tid: %d\n", m.Name(), m.TemplateID)
	for _, n := range m.Fields {
		p.node(b, n, 1)
	}
	if m.Err != nil {
		fmt.Fprintf(b, "%sERROR - %s\n", p.opts.Indent, m.Err)
	}
}

func (p *Text) node(b *strings.Builder, n *dissect.Node, depth int) {
	line := FieldLine(n.Type, n.Data, p.opts)
	if line == "" {
		return
	}
	b.WriteString(strings.Repeat(p.opts.Indent, depth))
	b.WriteString(line)
	b.WriteByte('\n')
	if n.Data.Status != field.StatusExists {
		return
	}
	switch n.Type.Kind {
	case field.KindGroup:
		for _, c := range n.Children {
			p.node(b, c, depth+1)
		}
	case field.KindSequence:
		// elements are shown by their fields only
		for _, elem := range n.Children {
			for _, c := range elem.Children {
				p.node(b, c, depth+1)
			}
		}
	}
}

// FieldLine renders one field occurrence without its children. It returns ""
// for empty fields when opts.ShowEmpty is false.
func FieldLine(ft *field.Type, d field.Data, opts Options) string {
	switch d.Status {
	case field.StatusError:
		return fmt.Sprintf("ERROR - %s (%d): %s", ft.Label(), ft.ID, d.Text())
	case field.StatusEmpty, field.StatusUndefined:
		if !opts.ShowEmpty {
			return ""
		}
		return fmt.Sprintf("%s (empty %s)", ft.Label(), ft.Kind)
	}
	switch ft.Kind {
	case field.KindGroup:
		return fmt.Sprintf("group - %s (%d):", ft.Label(), ft.ID)
	case field.KindSequence:
		return fmt.Sprintf("sequence - %s (%d)%s length %d:", ft.Label(), ft.ID, info(ft, opts), d.Value.Uint32())
	}
	return fmt.Sprintf("%s - %s (%d)%s: %s", ft.Kind, ft.Label(), ft.ID, info(ft, opts), Value(d.Value, opts))
}

// Value renders a field value.
func Value(v field.Value, opts Options) string {
	switch v.Kind() {
	case field.KindDecimal:
		if opts.Scientific {
			return Scientific(v.Mantissa(), v.Exponent())
		}
		return Plain(v.Mantissa(), v.Exponent())
	case field.KindByteVector:
		return hex.EncodeToString(v.Bytes())
	}
	return v.String()
}

// info is the bracketed attribute list, or "" when nothing is shown.
func info(ft *field.Type, opts Options) string {
	var parts []string
	if opts.ShowDictionary {
		dict := ft.Dictionary
		if dict == "" {
			dict = field.DictionaryGlobal
		}
		parts = append(parts, "dictionary="+dict)
	}
	if opts.ShowKey && ft.Key != "" {
		parts = append(parts, "key="+ft.Key)
	}
	if opts.ShowOperator {
		parts = append(parts, "operator="+ft.Operator.String())
	}
	if opts.ShowMandatory {
		if ft.Mandatory {
			parts = append(parts, "mandatory")
		} else {
			parts = append(parts, "not mandatory")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, " ") + "]"
}
