package dissect

import (
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/fastdissect/internal/fast/cursor"
	"github.com/danmuck/fastdissect/internal/fast/dictionary"
	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/danmuck/fastdissect/internal/fast/operator"
	"github.com/danmuck/fastdissect/internal/fast/template"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoTemplates     = errors.New("dissect: template set required")
	ErrInvalidPreamble = errors.New("dissect: invalid preamble length")
	ErrShortPacket     = errors.New("dissect: packet shorter than preamble")
)

// templateIDKey is the global dictionary entry holding the last template id.
const templateIDKey = "fast.template_id"

const defaultMaxSequenceLength = 1 << 16

// Config tunes a Dissector. Sinks are optional.
type Config struct {
	// Preamble bytes skipped at the start of every packet.
	Preamble int
	// ResetPerPacket clears the dictionaries after each packet.
	ResetPerPacket bool
	// MaxSequenceLength bounds the element count of a single sequence.
	MaxSequenceLength uint32

	Fields  FieldSink
	Errors  ErrorSink
	Metrics Metrics
}

func DefaultConfig() Config {
	return Config{MaxSequenceLength: defaultMaxSequenceLength}
}

// Dissector decodes packets of FAST messages against one template set and
// one dictionary set. Calls to Dissect are serialized.
type Dissector struct {
	cfg       Config
	templates *template.Set
	dict      *dictionary.Set
	engine    *operator.Engine
	tid       *field.Type

	mu sync.Mutex
}

// New builds a Dissector. A nil dict gets a fresh dictionary set.
func New(templates *template.Set, dict *dictionary.Set, cfg Config) (*Dissector, error) {
	if templates == nil {
		return nil, ErrNoTemplates
	}
	if cfg.Preamble < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPreamble, cfg.Preamble)
	}
	if cfg.MaxSequenceLength == 0 {
		cfg.MaxSequenceLength = defaultMaxSequenceLength
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if dict == nil {
		dict = dictionary.NewSet()
	}
	tid := field.Scalar(field.KindUInt32, "TemplateID", 0).
		Op(field.OpCopy).
		WithKey(templateIDKey).
		WithDictionary(field.DictionaryGlobal)
	return &Dissector{
		cfg:       cfg,
		templates: templates,
		dict:      dict,
		engine:    operator.New(),
		tid:       tid,
	}, nil
}

func (d *Dissector) Dictionary() *dictionary.Set {
	return d.dict
}

// Reset forgets all dictionary state, including the previous template id.
func (d *Dissector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dict.ClearAll()
}

// Dissect decodes every message in buf. Decoding stops at the first message
// that cannot be completed; that message is returned with its Err set and
// the error is also returned.
func (d *Dissector) Dissect(buf []byte) ([]*Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.ResetPerPacket {
		defer d.dict.ClearAll()
	}
	if len(buf) < d.cfg.Preamble {
		return nil, fmt.Errorf("%w: %d bytes, preamble %d", ErrShortPacket, len(buf), d.cfg.Preamble)
	}

	pos := cursor.At(buf, d.cfg.Preamble)
	var msgs []*Message
	for !pos.Done() {
		m := d.message(pos)
		msgs = append(msgs, m)
		if m.Err != nil {
			return msgs, m.Err
		}
	}
	return msgs, nil
}

func (d *Dissector) message(pos *cursor.Position) *Message {
	start := pos.Offset()
	m := &Message{Offset: start}
	defer func() {
		m.Len = pos.Offset() - start
		d.cfg.Metrics.Message(m.TemplateID, m.Len)
	}()

	scope, err := pos.Nested()
	if err != nil {
		d.abandon(m, pos, field.WrapDynamic(field.CodeTruncated, err))
		return m
	}
	id := d.engine.Apply(d.tid, scope, d.dict)
	if !id.Exists() {
		derr := id.Err
		if derr == nil {
			derr = field.NewDynamic(field.CodeD5, "template id")
		}
		d.abandon(m, pos, derr)
		return m
	}
	m.TemplateID = id.Value.Uint32()
	tmpl, ok := d.templates.Lookup(m.TemplateID)
	if !ok {
		d.abandon(m, pos, field.NewDynamic(field.CodeD9, fmt.Sprintf("template id %d", m.TemplateID)))
		return m
	}
	m.Template = tmpl

	w := walker{d: d, tid: tmpl.ID}
	m.Fields = w.fields(tmpl.Fields(), scope)
	w.overruns += scope.PMap().Overruns()
	pos.Commit(scope)
	if w.overruns > 0 {
		d.cfg.Metrics.PMapOverruns(w.overruns)
	}
	if w.halt != nil {
		m.Err = w.halt
		pos.Skip(pos.Remaining())
	}
	log.Debug().
		Uint32("template_id", m.TemplateID).
		Str("template", tmpl.Name).
		Int("offset", start).
		Int("len", pos.Offset()-start).
		Msg("message decoded")
	return m
}

// abandon fails m and drops the rest of the packet.
func (d *Dissector) abandon(m *Message, pos *cursor.Position, derr *field.DynamicError) {
	m.Err = derr
	d.cfg.Metrics.FieldError(derr.Code)
	d.report(Report{TemplateID: m.TemplateID, Offset: m.Offset, Err: derr})
	log.Warn().
		Uint32("template_id", m.TemplateID).
		Int("offset", m.Offset).
		Int("dropped", pos.Remaining()).
		Str("code", string(derr.Code)).
		Msg(derr.Error())
	pos.Skip(pos.Remaining())
}

func (d *Dissector) report(r Report) {
	if d.cfg.Errors != nil {
		d.cfg.Errors.Report(r)
	}
}

// walker decodes the fields of one message.
type walker struct {
	d        *Dissector
	tid      uint32
	halt     *field.DynamicError
	overruns int
}

func (w *walker) fields(types []*field.Type, pos *cursor.Position) []*Node {
	nodes := make([]*Node, 0, len(types))
	for _, ft := range types {
		if w.halt != nil {
			break
		}
		nodes = append(nodes, w.field(ft, pos))
	}
	return nodes
}

func (w *walker) field(ft *field.Type, pos *cursor.Position) *Node {
	switch ft.Kind {
	case field.KindGroup:
		return w.group(ft, pos)
	case field.KindSequence:
		return w.sequence(ft, pos)
	}
	n := &Node{Type: ft, Data: w.d.engine.Apply(ft, pos, w.d.dict)}
	w.emit(ft, n.Data)
	return n
}

// emit hands d to the sinks. Running out of bytes stops the message.
func (w *walker) emit(ft *field.Type, d field.Data) {
	if w.d.cfg.Fields != nil {
		w.d.cfg.Fields.Field(w.tid, ft, d)
	}
	if d.Status != field.StatusError || d.Err == nil {
		return
	}
	w.d.cfg.Metrics.FieldError(d.Err.Code)
	w.d.report(Report{
		TemplateID: w.tid,
		Template:   ft.TypeName,
		Field:      ft.Label(),
		FieldID:    ft.ID,
		Offset:     d.Start,
		Err:        d.Err,
	})
	if errors.Is(d.Err, field.ErrTruncated) {
		w.halt = d.Err
	}
}

func (w *walker) group(ft *field.Type, pos *cursor.Position) *Node {
	start := pos.Offset()
	n := &Node{Type: ft}
	if !ft.Mandatory {
		if bit, _ := pos.PresenceBit(); !bit {
			n.Data = field.Data{Start: start, Status: field.StatusEmpty, Value: field.Zero(ft.Kind)}
			w.emit(ft, n.Data)
			return n
		}
	}

	scope := pos.Shared()
	if ft.NeedsPMap {
		nested, err := pos.Nested()
		if err != nil {
			n.Data = field.Failed(ft.Kind, start, pos.Remaining(), field.WrapDynamic(field.CodeTruncated, err))
			pos.Skip(pos.Remaining())
			w.emit(ft, n.Data)
			return n
		}
		scope = nested
	}
	n.Children = w.fields(ft.Children, scope)
	if ft.NeedsPMap {
		w.overruns += scope.PMap().Overruns()
	}
	pos.Commit(scope)
	n.Data = field.Data{Start: start, Len: pos.Offset() - start, Status: field.StatusExists, Value: field.Zero(ft.Kind)}
	w.emit(ft, n.Data)
	return n
}

func (w *walker) sequence(ft *field.Type, pos *cursor.Position) *Node {
	start := pos.Offset()
	n := &Node{Type: ft}
	length := w.d.engine.Apply(ft.Length(), pos, w.d.dict)
	w.emit(ft.Length(), length)
	if w.halt != nil {
		n.Data = length
		return n
	}
	switch length.Status {
	case field.StatusError:
		// the length is already reported; without it the elements cannot be located
		n.Data = field.Failed(field.KindUInt32, start, pos.Offset()-start, length.Err)
		if w.d.cfg.Fields != nil {
			w.d.cfg.Fields.Field(w.tid, ft, n.Data)
		}
		w.halt = length.Err
		return n
	case field.StatusEmpty:
		n.Data = field.Data{Start: start, Len: pos.Offset() - start, Status: field.StatusEmpty, Value: field.Zero(field.KindUInt32)}
		w.emit(ft, n.Data)
		return n
	}

	count := length.Value.Uint32()
	if count > w.d.cfg.MaxSequenceLength {
		derr := field.NewDynamic(field.CodePrecondition,
			fmt.Sprintf("sequence length %d exceeds limit %d", count, w.d.cfg.MaxSequenceLength))
		n.Data = field.Failed(field.KindUInt32, start, pos.Offset()-start, derr)
		w.emit(ft, n.Data)
		// the elements cannot be located without decoding them
		w.halt = derr
		return n
	}
	elem := ft.Element()
	n.Children = make([]*Node, 0, count)
	for i := uint32(0); i < count && w.halt == nil; i++ {
		n.Children = append(n.Children, w.group(elem, pos))
	}
	n.Data = field.Data{Start: start, Len: pos.Offset() - start, Status: field.StatusExists, Value: length.Value}
	w.emit(ft, n.Data)
	return n
}
