package cursor

import (
	"errors"
	"testing"

	"github.com/danmuck/fastdissect/internal/fast/stopbit"
	"github.com/danmuck/fastdissect/internal/testutil/testlog"
)

func TestReadsAdvanceOffset(t *testing.T) {
	testlog.Start(t)
	buf := stopbit.AppendUint32(nil, 300)
	buf = stopbit.AppendInt64(buf, -5)
	buf = stopbit.AppendASCII(buf, []byte("GO"))
	buf = append(buf, 0xAA, 0xBB)

	p := New(buf)
	u, err := p.Uint32()
	if err != nil || u != 300 {
		t.Fatalf("uint32: %d %v", u, err)
	}
	if p.Offset() != 2 {
		t.Fatalf("expected offset 2, got %d", p.Offset())
	}
	i, err := p.Int64()
	if err != nil || i != -5 {
		t.Fatalf("int64: %d %v", i, err)
	}
	s, err := p.ASCII()
	if err != nil || string(s) != "GO" {
		t.Fatalf("ascii: %q %v", s, err)
	}
	raw, err := p.Raw(2)
	if err != nil || raw[0] != 0xAA || raw[1] != 0xBB {
		t.Fatalf("raw: %x %v", raw, err)
	}
	if !p.Done() || p.Remaining() != 0 {
		t.Fatalf("expected exhausted cursor, remaining=%d", p.Remaining())
	}
}

func TestOverlongStillAdvances(t *testing.T) {
	testlog.Start(t)
	p := New([]byte{0, 0, 0, 0, 0, 0x81, 0x82})
	if _, err := p.Uint32(); !errors.Is(err, stopbit.ErrOverlong) {
		t.Fatalf("expected ErrOverlong, got %v", err)
	}
	if p.Offset() != 6 {
		t.Fatalf("expected cursor past malformed field, got %d", p.Offset())
	}
}

func TestRawTruncatedDoesNotAdvance(t *testing.T) {
	testlog.Start(t)
	p := New([]byte{1, 2})
	if _, err := p.Raw(3); !errors.Is(err, stopbit.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if p.Offset() != 0 {
		t.Fatalf("cursor moved on failed read")
	}
}

func TestNestedScopeCommit(t *testing.T) {
	testlog.Start(t)
	// outer pmap, inner pmap, one uint32
	buf := stopbit.AppendPMap(nil, []bool{true})
	buf = stopbit.AppendPMap(buf, []bool{false, true})
	buf = stopbit.AppendUint32(buf, 9)

	p := New(buf)
	if err := p.DecodePMap(); err != nil {
		t.Fatalf("outer pmap: %v", err)
	}
	child, err := p.Nested()
	if err != nil {
		t.Fatalf("nested: %v", err)
	}
	if bit, ok := child.PresenceBit(); !ok || bit {
		t.Fatalf("inner bit 0: %v %v", bit, ok)
	}
	if bit, ok := child.PresenceBit(); !ok || !bit {
		t.Fatalf("inner bit 1: %v %v", bit, ok)
	}
	if v, err := child.Uint32(); err != nil || v != 9 {
		t.Fatalf("inner uint32: %d %v", v, err)
	}
	if p.Offset() != 1 {
		t.Fatalf("parent moved before commit: %d", p.Offset())
	}
	p.Commit(child)
	if !p.Done() {
		t.Fatalf("expected parent at end after commit, offset=%d", p.Offset())
	}
	if bit, ok := p.PresenceBit(); !ok || !bit {
		t.Fatalf("outer map should be untouched by the child: %v %v", bit, ok)
	}
}

func TestSharedScopeUsesParentMap(t *testing.T) {
	testlog.Start(t)
	p := New(stopbit.AppendPMap(nil, []bool{true, false}))
	if err := p.DecodePMap(); err != nil {
		t.Fatalf("pmap: %v", err)
	}
	child := p.Shared()
	child.PresenceBit()
	if bit, ok := p.PresenceBit(); !ok || bit {
		t.Fatalf("expected second bit from shared map, got %v %v", bit, ok)
	}
}

func TestNoMapMeansNoBits(t *testing.T) {
	testlog.Start(t)
	p := New([]byte{0x80})
	if _, ok := p.PresenceBit(); ok {
		t.Fatalf("scope without map returned a bit")
	}
	if !p.PeekNull() {
		t.Fatalf("expected null at cursor")
	}
}
