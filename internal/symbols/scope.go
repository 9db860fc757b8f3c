package symbols

import (
	"flux/internal/source"
)

// ItemScope maps names to items. Keys are unique per scope.
type ItemScope struct {
	items map[source.StringID]ModuleItem
	order []source.StringID
}

func NewItemScope() *ItemScope {
	return &ItemScope{items: make(map[source.StringID]ModuleItem)}
}

// Insert adds name and reports false when it is already taken.
func (s *ItemScope) Insert(name source.StringID, item ModuleItem) bool {
	if _, ok := s.items[name]; ok {
		return false
	}
	s.items[name] = item
	s.order = append(s.order, name)
	return true
}

func (s *ItemScope) Get(name source.StringID) (ModuleItem, bool) {
	if s == nil {
		return ModuleItem{}, false
	}
	item, ok := s.items[name]
	return item, ok
}

// Names returns the names in insertion order.
func (s *ItemScope) Names() []source.StringID {
	if s == nil {
		return nil
	}
	return append([]source.StringID(nil), s.order...)
}

func (s *ItemScope) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}
