package display

import (
	"encoding/hex"
	"io"

	"github.com/danmuck/fastdissect/internal/fast/dissect"
	"github.com/danmuck/fastdissect/internal/fast/field"
	gojson "github.com/goccy/go-json"
)

type messageJSON struct {
	Template   string      `json:"template,omitempty"`
	TemplateID uint32      `json:"template_id"`
	Offset     int         `json:"offset"`
	Len        int         `json:"len"`
	Error      string      `json:"error,omitempty"`
	Fields     []*nodeJSON `json:"fields,omitempty"`
}

type nodeJSON struct {
	Name     string        `json:"name"`
	ID       uint32        `json:"id,omitempty"`
	Type     string        `json:"type"`
	Status   string        `json:"status"`
	Value    any           `json:"value,omitempty"`
	Error    string        `json:"error,omitempty"`
	Code     string        `json:"code,omitempty"`
	Length   *int          `json:"length,omitempty"`
	Fields   []*nodeJSON   `json:"fields,omitempty"`
	Elements [][]*nodeJSON `json:"elements,omitempty"`
}

// JSON writes one JSON document per message, newline separated.
type JSON struct {
	enc  *gojson.Encoder
	opts Options
}

func NewJSON(w io.Writer, opts Options) *JSON {
	return &JSON{enc: gojson.NewEncoder(w), opts: opts}
}

func (p *JSON) Render(msgs []*dissect.Message) error {
	for _, m := range msgs {
		if err := p.enc.Encode(p.message(m)); err != nil {
			return err
		}
	}
	return nil
}

func (p *JSON) message(m *dissect.Message) messageJSON {
	out := messageJSON{
		Template:   m.Name(),
		TemplateID: m.TemplateID,
		Offset:     m.Offset,
		Len:        m.Len,
	}
	if m.Err != nil {
		out.Error = m.Err.Error()
	}
	out.Fields = p.nodes(m.Fields)
	return out
}

func (p *JSON) nodes(ns []*dissect.Node) []*nodeJSON {
	out := make([]*nodeJSON, 0, len(ns))
	for _, n := range ns {
		if n.Data.Status == field.StatusEmpty && !p.opts.ShowEmpty {
			continue
		}
		out = append(out, p.node(n))
	}
	return out
}

func (p *JSON) node(n *dissect.Node) *nodeJSON {
	out := &nodeJSON{
		Name:   n.Type.Label(),
		ID:     n.Type.ID,
		Type:   n.Type.Kind.String(),
		Status: n.Data.Status.String(),
	}
	switch n.Data.Status {
	case field.StatusError:
		out.Error = n.Data.Text()
		if n.Data.Err != nil {
			out.Code = string(n.Data.Err.Code)
		}
		return out
	case field.StatusExists:
	default:
		return out
	}
	switch n.Type.Kind {
	case field.KindGroup:
		out.Fields = p.nodes(n.Children)
	case field.KindSequence:
		length := n.Length()
		out.Length = &length
		for _, elem := range n.Children {
			out.Elements = append(out.Elements, p.nodes(elem.Children))
		}
	default:
		out.Value = p.value(n.Data.Value)
	}
	return out
}

// value keeps integers numeric; everything else is rendered as text.
func (p *JSON) value(v field.Value) any {
	switch v.Kind() {
	case field.KindUInt32, field.KindUInt64:
		return v.Uint64()
	case field.KindInt32, field.KindInt64:
		return v.Int64()
	case field.KindByteVector:
		return hex.EncodeToString(v.Bytes())
	}
	return Value(v, p.opts)
}
