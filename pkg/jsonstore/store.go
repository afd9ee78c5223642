// Package jsonstore is an in-memory JSON collection store speaking the small
// REST dialect the library client relies on: filtered listing with _limit,
// create, replace and delete by an internal id. It backs the client tests
// and a local development server; nothing is written to disk.
package jsonstore

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
}

type collection struct {
	idField string
	records []map[string]any
}

type Option func(*Store)

// WithCollection declares a collection. When idField is not empty the store
// hands out the next number for records created without that field.
func WithCollection(name, idField string) Option {
	return func(s *Store) {
		s.collections[name] = &collection{idField: idField}
	}
}

func New(opts ...Option) *Store {
	s := &Store{collections: make(map[string]*collection)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewLibrary returns a store with the livros, membros and emprestimos
// collections.
func NewLibrary() *Store {
	return New(
		WithCollection("livros", "idLivro"),
		WithCollection("membros", "idPessoa"),
		WithCollection("emprestimos", "idEmprestimo"),
	)
}

// Load reads a db.json style document, one array per collection, replacing
// the content of the collections it names.
func (s *Store) Load(r io.Reader) error {
	var doc map[string][]map[string]any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, records := range doc {
		col, ok := s.collections[name]
		if !ok {
			col = &collection{}
			s.collections[name] = col
		}
		col.records = col.records[:0]
		for _, rec := range records {
			if _, err := col.insert(rec); err != nil {
				return fmt.Errorf("seed %s: %w", name, err)
			}
		}
	}
	return nil
}

// Records returns copies of the stored objects of a collection.
func (s *Store) Records(name string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[name]
	if !ok {
		return nil
	}
	out := make([]map[string]any, len(col.records))
	for i, rec := range col.records {
		out[i] = clone(rec)
	}
	return out
}

func (s *Store) Collections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) list(name string, filters map[string]string, limit int) ([]map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[name]
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0)
	for _, rec := range col.records {
		if limit > 0 && len(out) >= limit {
			break
		}
		if matches(rec, filters) {
			out = append(out, clone(rec))
		}
	}
	return out, true
}

func (s *Store) get(name, id string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[name]
	if !ok {
		return nil, errUnknownCollection
	}
	i := col.index(id)
	if i < 0 {
		return nil, errNoRecord
	}
	return clone(col.records[i]), nil
}

func (s *Store) create(name string, rec map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[name]
	if !ok {
		return nil, errUnknownCollection
	}
	stored, err := col.insert(clone(rec))
	if err != nil {
		return nil, err
	}
	return clone(stored), nil
}

func (s *Store) replace(name, id string, rec map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[name]
	if !ok {
		return nil, errUnknownCollection
	}
	i := col.index(id)
	if i < 0 {
		return nil, errNoRecord
	}
	stored := clone(rec)
	stored["id"] = id
	col.records[i] = stored
	return clone(stored), nil
}

func (s *Store) remove(name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[name]
	if !ok {
		return errUnknownCollection
	}
	i := col.index(id)
	if i < 0 {
		return errNoRecord
	}
	col.records = append(col.records[:i], col.records[i+1:]...)
	return nil
}

func (c *collection) insert(rec map[string]any) (map[string]any, error) {
	id := text(rec["id"])
	if rec["id"] == nil || id == "" {
		id = uuid.NewString()
	} else if c.index(id) >= 0 {
		return nil, errDuplicateID
	}
	rec["id"] = id

	if c.idField != "" {
		if n, ok := rec[c.idField].(float64); !ok || n == 0 {
			rec[c.idField] = float64(c.nextSequence())
		}
	}
	c.records = append(c.records, rec)
	return rec, nil
}

func (c *collection) index(id string) int {
	for i, rec := range c.records {
		if text(rec["id"]) == id {
			return i
		}
	}
	return -1
}

func (c *collection) nextSequence() int {
	max := 0
	for _, rec := range c.records {
		if n, ok := rec[c.idField].(float64); ok && int(n) > max {
			max = int(n)
		}
	}
	return max + 1
}

func matches(rec map[string]any, filters map[string]string) bool {
	for k, want := range filters {
		if text(rec[k]) != want {
			return false
		}
	}
	return true
}

// text renders a JSON scalar the way it appears in a query string.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func clone(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
