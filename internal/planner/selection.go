package planner

import (
	"strconv"

	"github.com/AlexZinkM/card-wallet/internal/model"
)

// Selection is the set of fields the user chose to share from one card.
// Required fields cannot be removed.
type Selection struct {
	fields   Set
	required Set
	order    []string
}

// Has reports whether field is selected.
func (s *Selection) Has(field string) bool {
	return s.fields.Has(field)
}

// Len returns the number of selected fields.
func (s *Selection) Len() int {
	return len(s.fields)
}

// Select adds field to the selection.
func (s *Selection) Select(field string) {
	s.fields[field] = struct{}{}
}

// Deselect removes field unless it is required.
func (s *Selection) Deselect(field string) {
	if s.required.Has(field) {
		return
	}
	delete(s.fields, field)
}

// Set selects or deselects field.
func (s *Selection) Set(field string, on bool) {
	if on {
		s.Select(field)
		return
	}
	s.Deselect(field)
}

// Fields returns the selected fields in plan order.
func (s *Selection) Fields() []string {
	out := make([]string, 0, len(s.fields))
	for _, k := range s.order {
		if s.fields.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Filter returns the selected part of payload.
func (s *Selection) Filter(payload map[string]any) map[string]any {
	out := make(map[string]any, len(s.fields))
	for k := range s.fields {
		if v, ok := payload[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Selections holds the selections of one pending share, keyed by card.
type Selections struct {
	shareID string
	byKey   map[string]*Selection
}

// NewSelections creates the selection store of a share.
func NewSelections(shareID string) *Selections {
	return &Selections{shareID: shareID, byKey: make(map[string]*Selection)}
}

func (ss *Selections) key(card *model.Card, plan Plan) string {
	if card != nil && card.ID != "" {
		return card.ID
	}
	shareID := ss.shareID
	if shareID == "" {
		shareID = "share"
	}
	t := plan.Type
	if t == "" {
		t = "generic"
	}
	return shareID + "-" + t + "-" + strconv.Itoa(len(plan.Order))
}

// EnsureSelection returns the selection of card, creating it with defaults on
// first use. Required fields are always added and fields missing from the
// payload are dropped. The same instance is returned for the same card.
func EnsureSelection(share *Selections, card *model.Card, plan Plan) *Selection {
	if share == nil {
		return &Selection{fields: Set{}, required: Set{}}
	}
	key := share.key(card, plan)
	sel, ok := share.byKey[key]
	if !ok {
		sel = &Selection{fields: Set{}}
		for _, field := range plan.Order {
			if !card.HasField(field) {
				continue
			}
			if !plan.Declared || plan.Required.Has(field) {
				sel.fields[field] = struct{}{}
			}
		}
		share.byKey[key] = sel
	}
	sel.required = plan.Required
	sel.order = plan.Order

	for _, field := range plan.Order {
		if plan.Required.Has(field) && card.HasField(field) {
			sel.fields[field] = struct{}{}
		}
	}
	for field := range sel.fields {
		if !card.HasField(field) {
			delete(sel.fields, field)
		}
	}
	return sel
}
