package template

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/rs/zerolog/log"
)

var (
	ErrDuplicateID = errors.New("template: duplicate template id")
	ErrNoRoot      = errors.New("template: missing root group")
)

// Template is one message layout. Root is the group holding the message
// fields; it always owns the message presence map.
type Template struct {
	ID         uint32
	Name       string
	Dictionary string
	TypeName   string
	Root       *field.Type
}

// New builds a template whose root group holds fields.
func New(id uint32, name string, fields ...*field.Type) *Template {
	return &Template{ID: id, Name: name, Root: field.Group(name, id, fields...)}
}

func (t *Template) Fields() []*field.Type {
	if t.Root == nil {
		return nil
	}
	return t.Root.Children
}

// Set maps template ids to prepared templates. It is read-only once built.
type Set struct {
	byID map[uint32]*Template
}

func NewSet() *Set {
	return &Set{byID: make(map[uint32]*Template)}
}

// Add prepares t and registers it.
func (s *Set) Add(t *Template) error {
	if _, ok := s.byID[t.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, t.ID)
	}
	if err := Prepare(t); err != nil {
		return err
	}
	s.byID[t.ID] = t
	log.Debug().Uint32("template_id", t.ID).Str("template", t.Name).Msg("template registered")
	return nil
}

// Build registers every template it can. Templates that fail preparation
// are left out and their errors joined.
func Build(templates ...*Template) (*Set, error) {
	s := NewSet()
	var errs []error
	for _, t := range templates {
		if err := s.Add(t); err != nil {
			log.Warn().Err(err).Uint32("template_id", t.ID).Str("template", t.Name).Msg("template rejected")
			errs = append(errs, err)
		}
	}
	return s, errors.Join(errs...)
}

func (s *Set) Lookup(id uint32) (*Template, bool) {
	t, ok := s.byID[id]
	return t, ok
}

func (s *Set) Len() int {
	return len(s.byID)
}

// IDs lists the registered template ids in ascending order.
func (s *Set) IDs() []uint32 {
	ids := make([]uint32, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
