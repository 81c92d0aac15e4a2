// Package planner decides which card fields a share request needs and keeps
// the user's field selection per candidate card.
package planner

import (
	"slices"
	"sort"
	"strings"

	"github.com/AlexZinkM/card-wallet/internal/common"
	"github.com/AlexZinkM/card-wallet/internal/model"
)

// Source provides scenario attributes and card-type schemas.
// *catalog.Catalog implements it.
type Source interface {
	AttributesFor(meta *model.SessionMeta, cardType string) *model.AttributeSet
	SchemaFor(cardType string) (model.CardTypeSchema, bool)
}

// Set is a set of field keys.
type Set map[string]struct{}

func newSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key is in the set.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Plan is the field plan of one card for one request.
type Plan struct {
	Type string
	// Order is the schema order followed by the remaining payload keys.
	Order    []string
	Required Set
	// Optional holds every field the user may toggle.
	Optional Set
	// Declared reports whether any source declared attributes.
	Declared bool
}

// Available returns the keys of Order present in the card payload.
func (p Plan) Available(card *model.Card) []string {
	out := make([]string, 0, len(p.Order))
	for _, k := range p.Order {
		if card.HasField(k) {
			out = append(out, k)
		}
	}
	return out
}

// MissingRequired returns the required keys absent from the card payload,
// in plan order first and then lexically.
func (p Plan) MissingRequired(card *model.Card) []string {
	var missing []string
	for _, k := range p.Order {
		if p.Required.Has(k) && !card.HasField(k) {
			missing = append(missing, k)
		}
	}
	var extra []string
	for k := range p.Required {
		if !card.HasField(k) && !slices.Contains(p.Order, k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(missing, extra...)
}

// Planner builds plans from a Source.
type Planner struct {
	src Source
}

// New creates a planner.
func New(src Source) *Planner {
	return &Planner{src: src}
}

// BuildPlan computes the plan of card for the request meta.
func (p *Planner) BuildPlan(card *model.Card, meta *model.SessionMeta) Plan {
	plan := Plan{Required: Set{}, Optional: Set{}}
	if card == nil {
		return plan
	}
	plan.Type = common.CanonicalType(card.Type)

	if schema, ok := p.src.SchemaFor(plan.Type); ok {
		plan.Order = append(plan.Order, schema.Order...)
	}
	var rest []string
	for k := range card.Payload {
		if !slices.Contains(plan.Order, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	plan.Order = append(plan.Order, rest...)

	attrs := p.src.AttributesFor(meta, plan.Type)
	var required, optional []string
	if attrs != nil {
		required = cleanKeys(attrs.Required)
		optional = cleanKeys(attrs.Optional)
	}
	plan.Required = newSet(required...)
	plan.Optional = newSet(optional...)
	plan.Declared = len(required) > 0 || len(optional) > 0

	for k := range card.Payload {
		switch {
		case !plan.Declared:
			plan.Required[k] = struct{}{}
		case len(required) == 0 && !plan.Optional.Has(k):
			plan.Required[k] = struct{}{}
		case !plan.Required.Has(k):
			plan.Optional[k] = struct{}{}
		}
	}
	return plan
}

func cleanKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
