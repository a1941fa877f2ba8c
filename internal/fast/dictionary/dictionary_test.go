package dictionary

import (
	"errors"
	"testing"

	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/danmuck/fastdissect/internal/testutil/testlog"
)

var global = Scope{Name: field.DictionaryGlobal}

func TestGetUndefinedKey(t *testing.T) {
	testlog.Start(t)
	s := NewSet()
	got, err := s.Get(global, "x", field.KindUInt32)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != field.StatusUndefined {
		t.Fatalf("expected undefined, got %s", got.Status)
	}
	if s.Scopes() != 1 {
		t.Fatalf("expected scope to be created on first reference")
	}
}

func TestTypeMismatchIsReported(t *testing.T) {
	testlog.Start(t)
	s := NewSet()
	s.Put(global, "x", field.KindInt32, field.StatusExists, field.Int32Value(7))
	got, err := s.Get(global, "x", field.KindUInt32)
	if !errors.Is(err, field.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	var dyn *field.DynamicError
	if !errors.As(err, &dyn) || dyn.Code != field.CodeD4 {
		t.Fatalf("expected D4 dynamic error, got %#v", err)
	}
	if got.Status != field.StatusError || got.Value.IsValid() {
		t.Fatalf("mismatch must not return a value: %+v", got)
	}
}

func TestPutAndGetAreDeepCopies(t *testing.T) {
	testlog.Start(t)
	s := NewSet()
	payload := []byte{1, 2, 3}
	v := field.BytesValue(payload)
	s.Put(global, "v", field.KindByteVector, field.StatusExists, v)
	v.Bytes()[0] = 9

	first, err := s.Get(global, "v", field.KindByteVector)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.Value.Bytes()[0] != 1 {
		t.Fatalf("stored value aliased caller buffer: %x", first.Value.Bytes())
	}
	first.Value.Bytes()[1] = 9
	second, _ := s.Get(global, "v", field.KindByteVector)
	if second.Value.Bytes()[1] != 2 {
		t.Fatalf("lookup aliased stored value: %x", second.Value.Bytes())
	}
}

func TestEmptyEntries(t *testing.T) {
	testlog.Start(t)
	s := NewSet()
	s.Put(global, "e", field.KindASCII, field.StatusEmpty, field.Value{})
	got, err := s.Get(global, "e", field.KindASCII)
	if err != nil || got.Status != field.StatusEmpty {
		t.Fatalf("expected empty, got %s %v", got.Status, err)
	}
	s.Put(global, "e", field.KindASCII, field.StatusError, field.ASCIIValue([]byte("x")))
	got, _ = s.Get(global, "e", field.KindASCII)
	if got.Status != field.StatusEmpty {
		t.Fatalf("error outcome must not overwrite history, got %s", got.Status)
	}
	s.Put(global, "", field.KindASCII, field.StatusExists, field.ASCIIValue([]byte("x")))
	if s.Len() != 1 {
		t.Fatalf("empty key should be ignored, len=%d", s.Len())
	}
}

func TestClearAllKeepsScopes(t *testing.T) {
	testlog.Start(t)
	s := NewSet()
	s.Put(global, "a", field.KindUInt32, field.StatusExists, field.Uint32Value(1))
	s.Put(Scope{Name: "custom"}, "b", field.KindUInt32, field.StatusExists, field.Uint32Value(2))
	s.ClearAll()
	if s.Len() != 0 {
		t.Fatalf("expected no entries, got %d", s.Len())
	}
	if s.Scopes() != 2 {
		t.Fatalf("expected scopes to survive, got %d", s.Scopes())
	}
}

func TestScopeOf(t *testing.T) {
	testlog.Start(t)
	ft := field.Scalar(field.KindUInt32, "Seq", 34).WithDictionary(field.DictionaryTemplate)
	ft.TemplateID = 7
	if sc := ScopeOf(ft); sc.Name != field.DictionaryTemplate || sc.TemplateID != 7 {
		t.Fatalf("unexpected template scope: %+v", sc)
	}
	other := field.Scalar(field.KindUInt32, "Seq", 34).WithDictionary(field.DictionaryTemplate)
	other.TemplateID = 8
	if ScopeOf(ft) == ScopeOf(other) {
		t.Fatalf("template scopes of different templates must differ")
	}
	if sc := ScopeOf(field.Scalar(field.KindUInt32, "x", 1)); sc != global {
		t.Fatalf("expected global default, got %+v", sc)
	}
	typed := field.Scalar(field.KindUInt32, "x", 1).WithDictionary(field.DictionaryType)
	typed.TypeName = "Quote"
	if sc := ScopeOf(typed); sc.String() != "type:Quote" {
		t.Fatalf("unexpected type scope: %s", sc)
	}
}

func TestRegistryIsolatesSessions(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	a := r.Session("feed-a")
	b := r.Session("feed-b")
	if a == b || r.Session("feed-a") != a {
		t.Fatalf("registry should return one set per key")
	}
	a.Put(global, "x", field.KindUInt32, field.StatusExists, field.Uint32Value(1))
	if got, _ := b.Get(global, "x", field.KindUInt32); got.Status != field.StatusUndefined {
		t.Fatalf("sessions share history")
	}
	r.Reset("feed-a")
	if a.Len() != 0 {
		t.Fatalf("reset did not clear session")
	}
	b.Put(global, "y", field.KindUInt32, field.StatusExists, field.Uint32Value(1))
	r.ClearAll()
	if b.Len() != 0 {
		t.Fatalf("ClearAll did not clear every session")
	}
	if keys := r.Sessions(); len(keys) != 2 || keys[0] != "feed-a" {
		t.Fatalf("unexpected sessions: %v", keys)
	}
}
