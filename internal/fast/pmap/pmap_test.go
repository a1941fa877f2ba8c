package pmap

import (
	"errors"
	"testing"

	"github.com/danmuck/fastdissect/internal/fast/stopbit"
	"github.com/danmuck/fastdissect/internal/testutil/testlog"
)

func TestDecodeTwoBytesYieldsFourteenBits(t *testing.T) {
	testlog.Start(t)
	m, n, err := Decode([]byte{0x7F, 0xFF, 0x01})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 2 || m.Size() != 2 {
		t.Fatalf("expected 2 bytes, got n=%d size=%d", n, m.Size())
	}
	if m.Len() != 14 {
		t.Fatalf("expected 14 bits, got %d", m.Len())
	}
	for i := 0; i < 14; i++ {
		bit, ok := m.Shift()
		if !ok || !bit {
			t.Fatalf("bit %d: got bit=%v ok=%v", i, bit, ok)
		}
	}
	bit, ok := m.Shift()
	if ok || bit {
		t.Fatalf("expected exhaustion on 15th shift, got bit=%v ok=%v", bit, ok)
	}
	if m.Overruns() != 1 {
		t.Fatalf("expected 1 overrun, got %d", m.Overruns())
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	testlog.Start(t)
	m, _, err := Decode([]byte{0xC0})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bit, ok := m.Peek(); !ok || !bit {
		t.Fatalf("peek: bit=%v ok=%v", bit, ok)
	}
	if m.Index() != 0 || m.Remaining() != 7 {
		t.Fatalf("peek advanced: index=%d remaining=%d", m.Index(), m.Remaining())
	}
	m.Shift()
	if bit, ok := m.Peek(); !ok || bit {
		t.Fatalf("second bit: bit=%v ok=%v", bit, ok)
	}
	if m.Index() != 1 || m.Remaining() != 6 {
		t.Fatalf("unexpected position: index=%d remaining=%d", m.Index(), m.Remaining())
	}
}

func TestDecodeUnterminated(t *testing.T) {
	testlog.Start(t)
	if _, _, err := Decode([]byte{0x01, 0x02}); !errors.Is(err, stopbit.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestNilMapIsExhausted(t *testing.T) {
	testlog.Start(t)
	var m *Map
	if _, ok := m.Shift(); ok {
		t.Fatalf("nil map should be exhausted")
	}
	if m.Len() != 0 || m.Remaining() != 0 || m.Overruns() != 0 {
		t.Fatalf("nil map accessors should be zero")
	}
}

func TestFromBitsMatchesEncoding(t *testing.T) {
	testlog.Start(t)
	bits := []bool{true, false, true}
	m := FromBits(bits)
	bits[0] = false
	decoded, _, err := Decode(stopbit.AppendPMap(nil, []bool{true, false, true}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := 0; i < 3; i++ {
		a, _ := m.Shift()
		b, _ := decoded.Shift()
		if a != b {
			t.Fatalf("bit %d differs: %v != %v", i, a, b)
		}
	}
}
