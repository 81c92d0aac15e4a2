// Package catalog holds the scenario configuration and the card-type display
// schema. Both are loaded once at startup and read-only afterwards.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AlexZinkM/card-wallet/internal/common"
	"github.com/AlexZinkM/card-wallet/internal/model"
)

// Field display formats understood by FormatField.
const (
	FormatDate    = "date"
	FormatBoolean = "boolean"
	FormatEUR     = "eur"
)

// NamedScenario is a scenario together with its id.
type NamedScenario struct {
	ID       string
	Scenario model.Scenario
}

// NamedCardType is a card-type schema together with its key.
type NamedCardType struct {
	Key    string
	Schema model.CardTypeSchema
}

// Catalog answers attribute and display lookups.
type Catalog struct {
	scenarios map[string]model.Scenario
	types     map[string]model.CardTypeSchema
	typeKeys  []string

	attrByScenario map[string]*model.AttributeSet
	attrByType     map[string]*model.AttributeSet
}

// New builds a catalog. Scenarios are registered in slice order; for type
// lookups the first scenario naming a type wins.
func New(scenarios []NamedScenario, types []NamedCardType) *Catalog {
	c := &Catalog{
		scenarios:      make(map[string]model.Scenario, len(scenarios)),
		types:          make(map[string]model.CardTypeSchema, len(types)),
		attrByScenario: make(map[string]*model.AttributeSet),
		attrByType:     make(map[string]*model.AttributeSet),
	}
	for _, t := range types {
		if _, ok := c.types[t.Key]; !ok {
			c.typeKeys = append(c.typeKeys, t.Key)
		}
		c.types[t.Key] = t.Schema
	}
	for _, s := range scenarios {
		c.register(s)
	}
	return c
}

func (c *Catalog) register(s NamedScenario) {
	id := strings.ToUpper(strings.TrimSpace(s.ID))
	if id == "" {
		return
	}
	c.scenarios[id] = s.Scenario

	req := s.Scenario.Request
	if req == nil || req.Attributes == nil {
		return
	}
	c.attrByScenario[id] = req.Attributes

	typeRaw := req.TypeRef
	if typeRaw == "" {
		typeRaw = req.Type
	}
	if key := common.CanonicalType(typeRaw); key != "" {
		if _, ok := c.attrByType[key]; !ok {
			c.attrByType[key] = req.Attributes
		}
	}
}

// Load reads both configuration files. An empty path yields an empty part.
func Load(scenariosPath, cardTypesPath string) (*Catalog, error) {
	var (
		scenarios []NamedScenario
		types     []NamedCardType
		err       error
	)
	if scenariosPath != "" {
		if scenarios, err = LoadScenarios(scenariosPath); err != nil {
			return nil, err
		}
	}
	if cardTypesPath != "" {
		if types, err = LoadCardTypes(cardTypesPath); err != nil {
			return nil, err
		}
	}
	return New(scenarios, types), nil
}

// LoadScenarios reads a scenario file (.json, .yaml or .toml) in file order.
func LoadScenarios(path string) ([]NamedScenario, error) {
	entries, err := readEntries(path, scenarioDocSchema)
	if err != nil {
		return nil, err
	}
	out := make([]NamedScenario, 0, len(entries))
	for _, e := range entries {
		var s model.Scenario
		if err := e.decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode scenario %q: %w", e.key, err)
		}
		out = append(out, NamedScenario{ID: e.key, Scenario: s})
	}
	return out, nil
}

// LoadCardTypes reads a card-type schema file (.json, .yaml or .toml) in file order.
func LoadCardTypes(path string) ([]NamedCardType, error) {
	entries, err := readEntries(path, cardTypeDocSchema)
	if err != nil {
		return nil, err
	}
	out := make([]NamedCardType, 0, len(entries))
	for _, e := range entries {
		var s model.CardTypeSchema
		if err := e.decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode card type %q: %w", e.key, err)
		}
		out = append(out, NamedCardType{Key: e.key, Schema: s})
	}
	return out, nil
}

// Scenario returns the scenario registered under id (case-insensitive).
func (c *Catalog) Scenario(id string) (model.Scenario, bool) {
	s, ok := c.scenarios[strings.ToUpper(strings.TrimSpace(id))]
	return s, ok
}

// ScenarioTitle returns the configured title of a scenario, if any.
func (c *Catalog) ScenarioTitle(id string) string {
	s, ok := c.Scenario(id)
	if !ok {
		return ""
	}
	if s.Title != "" {
		return s.Title
	}
	if s.Request != nil {
		return s.Request.Title
	}
	return ""
}

// AttributesFor resolves the attribute set for a request: attributes on the
// record itself, then the scenario, then the first scenario for the type.
// Returns nil when nothing is declared.
func (c *Catalog) AttributesFor(meta *model.SessionMeta, cardType string) *model.AttributeSet {
	if attrs := meta.DeclaredAttributes(); attrs != nil {
		return attrs
	}
	if meta != nil && meta.Scenario != "" {
		if attrs, ok := c.attrByScenario[strings.ToUpper(strings.TrimSpace(meta.Scenario))]; ok {
			return attrs
		}
	}
	t := cardType
	if t == "" && meta != nil {
		t = meta.Type
	}
	if key := common.CanonicalType(t); key != "" {
		if attrs, ok := c.attrByType[key]; ok {
			return attrs
		}
	}
	return nil
}

// SchemaFor returns the display schema of a card type. Keys are matched in
// canonical form, then with underscores as spaces.
func (c *Catalog) SchemaFor(cardType string) (model.CardTypeSchema, bool) {
	key := common.CanonicalType(cardType)
	if s, ok := c.types[key]; ok {
		return s, true
	}
	s, ok := c.types[strings.ReplaceAll(key, "_", " ")]
	return s, ok
}

// FirstType returns the first configured card type in canonical form, or GENERIC.
func (c *Catalog) FirstType() string {
	if len(c.typeKeys) == 0 {
		return "GENERIC"
	}
	return common.CanonicalType(c.typeKeys[0])
}

// LabelForType returns the schema title of a type, else the uppercased type.
func (c *Catalog) LabelForType(cardType string) string {
	if s, ok := c.SchemaFor(cardType); ok && s.Title != "" {
		return s.Title
	}
	if up := strings.ToUpper(strings.TrimSpace(cardType)); up != "" {
		return up
	}
	return common.CanonicalType(cardType)
}

// TitleForEntry picks the display title of an inbox entry.
func (c *Catalog) TitleForEntry(e *model.InboxEntry) string {
	switch {
	case e == nil:
		return "Request"
	case e.Title != "":
		return e.Title
	case e.Type != "":
		return c.LabelForType(e.Type)
	}
	return "Request"
}

// FieldLabel returns the schema label of a field, else the key.
func (c *Catalog) FieldLabel(cardType, key string) string {
	if s, ok := c.SchemaFor(cardType); ok {
		if l := s.Labels[key]; l != "" {
			return l
		}
	}
	return key
}

// FormatField renders one payload field for display.
func (c *Catalog) FormatField(cardType, key string, payload map[string]any) model.FieldDisplay {
	schema, _ := c.SchemaFor(cardType)
	raw, ok := payload[key]
	out := model.FieldDisplay{Key: key, Label: c.FieldLabel(cardType, key)}
	if !ok || raw == nil {
		return out
	}

	switch schema.Format[key] {
	case FormatDate:
		out.Value = formatDateValue(raw)
	case FormatBoolean:
		if truthy(raw) {
			out.Value = "yes"
		} else {
			out.Value = "no"
		}
	case FormatEUR:
		out.Value = common.FormatCurrencyEUR(raw)
	default:
		out.Value = plainValue(raw)
	}
	return out
}

func formatDateValue(raw any) string {
	switch v := raw.(type) {
	case string:
		if ts := model.ParseTimestamp(v); !ts.IsZero() {
			return common.FormatDate(ts)
		}
		return v
	case float64:
		return common.FormatDate(model.Timestamp(int64(v)))
	case int64:
		return common.FormatDate(model.Timestamp(v))
	case int:
		return common.FormatDate(model.Timestamp(v))
	}
	return plainValue(raw)
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != ""
	case float64:
		return b != 0
	case int:
		return b != 0
	case int64:
		return b != 0
	case nil:
		return false
	}
	return true
}

func plainValue(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			switch item.(type) {
			case map[string]any, []any:
				parts = append(parts, jsonString(item))
			default:
				parts = append(parts, fmt.Sprint(item))
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return jsonString(v)
	case float64:
		return jsonString(v)
	}
	return fmt.Sprint(raw)
}

func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
