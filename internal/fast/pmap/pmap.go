package pmap

import (
	"github.com/danmuck/fastdissect/internal/fast/stopbit"
	"github.com/rs/zerolog/log"
)

// Map is a decoded presence map. Bits are consumed in order by Shift.
type Map struct {
	bits     []bool
	index    int
	size     int
	overruns int
}

// Decode reads a presence map at the start of buf and returns it with the
// number of bytes it occupied.
func Decode(buf []byte) (*Map, int, error) {
	bits, n, err := stopbit.PMapBits(buf)
	if err != nil {
		return nil, 0, err
	}
	return &Map{bits: bits, size: n}, n, nil
}

// FromBits builds a map from already expanded bits.
func FromBits(bits []bool) *Map {
	cp := make([]bool, len(bits))
	copy(cp, bits)
	return &Map{bits: cp, size: (len(bits) + 6) / 7}
}

// Shift returns the next bit. ok is false once the map is exhausted; an
// exhausted map reads as all zeros.
func (m *Map) Shift() (bit bool, ok bool) {
	if m == nil {
		return false, false
	}
	if m.index >= len(m.bits) {
		m.overruns++
		log.Debug().
			Int("index", m.index).
			Int("bits", len(m.bits)).
			Msg("pmap overrun")
		return false, false
	}
	bit = m.bits[m.index]
	m.index++
	return bit, true
}

// Peek returns the next bit without consuming it.
func (m *Map) Peek() (bool, bool) {
	if m == nil || m.index >= len(m.bits) {
		return false, false
	}
	return m.bits[m.index], true
}

// Len is the total number of bits in the map.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.bits)
}

// Index is the number of bits consumed so far.
func (m *Map) Index() int {
	if m == nil {
		return 0
	}
	return m.index
}

func (m *Map) Remaining() int {
	if m == nil {
		return 0
	}
	return len(m.bits) - m.index
}

// Size is the encoded length in bytes.
func (m *Map) Size() int {
	if m == nil {
		return 0
	}
	return m.size
}

// Overruns counts Shift calls made after the map ran out of bits.
func (m *Map) Overruns() int {
	if m == nil {
		return 0
	}
	return m.overruns
}
