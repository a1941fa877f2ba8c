package dictionary

import (
	"fmt"
	"sync"

	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/rs/zerolog/log"
)

// Scope identifies one dictionary. Template scopes are per template id and
// type scopes per application type; every other scope is identified by name.
type Scope struct {
	Name       string
	TemplateID uint32
	TypeName   string
}

func (s Scope) String() string {
	switch s.Name {
	case field.DictionaryTemplate:
		return fmt.Sprintf("template:%d", s.TemplateID)
	case field.DictionaryType:
		return "type:" + s.TypeName
	}
	return s.Name
}

// ScopeOf resolves the dictionary a field reads and writes.
func ScopeOf(ft *field.Type) Scope {
	name := ft.Dictionary
	if name == "" {
		name = field.DictionaryGlobal
	}
	switch name {
	case field.DictionaryTemplate:
		return Scope{Name: name, TemplateID: ft.TemplateID}
	case field.DictionaryType:
		return Scope{Name: name, TypeName: ft.TypeName}
	}
	return Scope{Name: name}
}

type entry struct {
	kind  field.Kind
	empty bool
	value field.Value
}

// Lookup is the previous value of a field. Value is a private copy.
type Lookup struct {
	Status field.Status
	Value  field.Value
}

// Set holds the dictionaries of one session.
type Set struct {
	mu     sync.Mutex
	scopes map[Scope]map[string]entry
}

func NewSet() *Set {
	return &Set{scopes: make(map[Scope]map[string]entry)}
}

func (s *Set) scope(sc Scope) map[string]entry {
	entries, ok := s.scopes[sc]
	if !ok {
		entries = make(map[string]entry)
		s.scopes[sc] = entries
		log.Debug().Str("scope", sc.String()).Msg("dictionary scope created")
	}
	return entries
}

// Get returns the stored value for key. A value stored under a different
// kind is reported as a D4 error rather than coerced.
func (s *Set) Get(sc Scope, key string, kind field.Kind) (Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.scope(sc)[key]
	if !ok {
		return Lookup{Status: field.StatusUndefined}, nil
	}
	if e.kind != kind {
		return Lookup{Status: field.StatusError}, field.NewDynamic(field.CodeD4,
			fmt.Sprintf("key=%s scope=%s stored=%s requested=%s", key, sc, e.kind, kind))
	}
	if e.empty {
		return Lookup{Status: field.StatusEmpty}, nil
	}
	return Lookup{Status: field.StatusExists, Value: e.value.Clone()}, nil
}

// Put records the latest value for key. Only Exists and Empty outcomes are
// stored; an empty key is ignored.
func (s *Set) Put(sc Scope, key string, kind field.Kind, status field.Status, v field.Value) {
	if key == "" {
		return
	}
	var e entry
	switch status {
	case field.StatusExists:
		e = entry{kind: kind, value: v.Clone()}
	case field.StatusEmpty:
		e = entry{kind: kind, empty: true}
	default:
		return
	}
	s.mu.Lock()
	s.scope(sc)[key] = e
	s.mu.Unlock()
}

// ClearAll drops every stored value but keeps the scopes.
func (s *Set) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sc := range s.scopes {
		clear(s.scopes[sc])
	}
}

// Len is the number of stored entries across all scopes.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, entries := range s.scopes {
		n += len(entries)
	}
	return n
}

func (s *Set) Scopes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scopes)
}
