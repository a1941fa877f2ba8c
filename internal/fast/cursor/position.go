package cursor

import (
	"fmt"

	"github.com/danmuck/fastdissect/internal/fast/pmap"
	"github.com/danmuck/fastdissect/internal/fast/stopbit"
)

// Position is the read cursor of one dissection scope. Offsets are absolute
// within the buffer handed to New.
type Position struct {
	buf  []byte
	off  int
	pmap *pmap.Map
}

func New(buf []byte) *Position {
	return &Position{buf: buf}
}

// At returns a cursor over buf starting at off.
func At(buf []byte, off int) *Position {
	if off > len(buf) {
		off = len(buf)
	}
	return &Position{buf: buf, off: off}
}

func (p *Position) Offset() int    { return p.off }
func (p *Position) Remaining() int { return len(p.buf) - p.off }
func (p *Position) Done() bool     { return p.off >= len(p.buf) }

// Bytes is the unread tail of the buffer.
func (p *Position) Bytes() []byte { return p.buf[p.off:] }

func (p *Position) PMap() *pmap.Map { return p.pmap }

// DecodePMap reads a presence map at the cursor and makes it the active map.
func (p *Position) DecodePMap() error {
	m, n, err := pmap.Decode(p.Bytes())
	if err != nil {
		return fmt.Errorf("cursor: pmap at offset %d: %w", p.off, err)
	}
	p.pmap = m
	p.off += n
	return nil
}

// Nested starts a child scope with its own presence map read at the cursor.
func (p *Position) Nested() (*Position, error) {
	child := &Position{buf: p.buf, off: p.off}
	if err := child.DecodePMap(); err != nil {
		return nil, err
	}
	return child, nil
}

// Shared starts a child scope that keeps consuming the parent's map.
func (p *Position) Shared() *Position {
	return &Position{buf: p.buf, off: p.off, pmap: p.pmap}
}

// Commit moves p past everything child consumed.
func (p *Position) Commit(child *Position) {
	if child.off > p.off {
		p.off = child.off
	}
}

// PresenceBit consumes the next presence bit. ok is false when the scope has
// no map or the map is exhausted.
func (p *Position) PresenceBit() (bit bool, ok bool) {
	return p.pmap.Shift()
}

func (p *Position) PeekNull() bool {
	return stopbit.IsNull(p.Bytes())
}

func (p *Position) Skip(n int) {
	p.off += n
	if p.off > len(p.buf) {
		p.off = len(p.buf)
	}
}

func (p *Position) Uint32() (uint32, error) {
	v, n, err := stopbit.Uint32(p.Bytes())
	p.Skip(n)
	return v, err
}

func (p *Position) Uint64() (uint64, error) {
	v, n, err := stopbit.Uint64(p.Bytes())
	p.Skip(n)
	return v, err
}

func (p *Position) Int32() (int32, error) {
	v, n, err := stopbit.Int32(p.Bytes())
	p.Skip(n)
	return v, err
}

func (p *Position) Int64() (int64, error) {
	v, n, err := stopbit.Int64(p.Bytes())
	p.Skip(n)
	return v, err
}

// ASCII reads a stop-bit terminated run without applying the zero preamble
// rule.
func (p *Position) ASCII() ([]byte, error) {
	raw, n, err := stopbit.ASCII(p.Bytes())
	p.Skip(n)
	return raw, err
}

// Raw copies the next n bytes.
func (p *Position) Raw(n int) ([]byte, error) {
	b, err := stopbit.Bytes(p.Bytes(), n)
	if err != nil {
		return nil, err
	}
	p.Skip(n)
	return b, nil
}
