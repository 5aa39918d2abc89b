package domain

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Sections maps section names to covers, keeping insertion order in both
// iteration and JSON encoding.
type Sections struct {
	m *orderedmap.OrderedMap[string, []Cover]
}

// NewSections returns an empty ordered section map.
func NewSections() *Sections {
	return &Sections{m: orderedmap.New[string, []Cover]()}
}

func (s *Sections) init() {
	if s.m == nil {
		s.m = orderedmap.New[string, []Cover]()
	}
}

// Set stores covers under name. An existing key keeps its position.
func (s *Sections) Set(name string, covers []Cover) {
	s.init()
	if covers == nil {
		covers = []Cover{}
	}
	s.m.Set(name, covers)
}

// Append adds covers to the end of the named section, creating it if needed.
func (s *Sections) Append(name string, covers ...Cover) {
	s.init()
	existing, _ := s.m.Get(name)
	s.Set(name, append(existing, covers...))
}

// Get returns the covers for name.
func (s *Sections) Get(name string) ([]Cover, bool) {
	if s == nil || s.m == nil {
		return nil, false
	}
	return s.m.Get(name)
}

// Remove deletes name and returns its covers.
func (s *Sections) Remove(name string) ([]Cover, bool) {
	if s == nil || s.m == nil {
		return nil, false
	}
	return s.m.Delete(name)
}

// Len reports the number of sections.
func (s *Sections) Len() int {
	if s == nil || s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Keys returns section names in order.
func (s *Sections) Keys() []string {
	if s == nil || s.m == nil {
		return nil
	}
	keys := make([]string, 0, s.m.Len())
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each visits sections in order.
func (s *Sections) Each(fn func(name string, covers []Cover)) {
	if s == nil || s.m == nil {
		return
	}
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Counts returns the number of covers per section.
func (s *Sections) Counts() map[string]int {
	out := make(map[string]int, s.Len())
	s.Each(func(name string, covers []Cover) {
		out[name] = len(covers)
	})
	return out
}

// Total returns the number of covers across all sections.
func (s *Sections) Total() int {
	n := 0
	s.Each(func(_ string, covers []Cover) {
		n += len(covers)
	})
	return n
}

func (s *Sections) MarshalJSON() ([]byte, error) {
	s.init()
	return json.Marshal(s.m)
}

func (s *Sections) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, []Cover]()
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("decode sections: %w", err)
	}
	s.m = m
	return nil
}
