package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ID holds page/question identifiers which configurations write either as
// strings or as numbers.
type ID string

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: decode id: %w", err)
	}
	text, err := scalarText(raw)
	if err != nil {
		return fmt.Errorf("model: decode id: %w", err)
	}
	*id = ID(text)
	return nil
}

// UnmarshalYAML accepts any scalar node.
func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("model: decode id: expected scalar at line %d", node.Line)
	}
	*id = ID(node.Value)
	return nil
}

// Bound is a numeric min/max threshold. Raw keeps the configured spelling so
// generated messages echo what the author wrote.
type Bound struct {
	Value float64
	Raw   string
}

// NewBound builds a bound from a number.
func NewBound(value float64) *Bound {
	return &Bound{Value: value, Raw: strconv.FormatFloat(value, 'f', -1, 64)}
}

// String returns the configured spelling of the bound.
func (b Bound) String() string {
	if b.Raw != "" {
		return b.Raw
	}
	return strconv.FormatFloat(b.Value, 'f', -1, 64)
}

// MarshalJSON emits the bound as a JSON number.
func (b Bound) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Value)
}

// UnmarshalJSON accepts a number or a numeric string.
func (b *Bound) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: decode bound: %w", err)
	}
	text, err := scalarText(raw)
	if err != nil {
		return fmt.Errorf("model: decode bound: %w", err)
	}
	return b.parse(text)
}

// UnmarshalYAML accepts a numeric scalar.
func (b *Bound) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("model: decode bound: expected scalar at line %d", node.Line)
	}
	return b.parse(node.Value)
}

func (b *Bound) parse(text string) error {
	trimmed := strings.TrimSpace(text)
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("model: bound %q is not numeric", text)
	}
	b.Value = value
	b.Raw = trimmed
	return nil
}

// Trigger lists the answer values that reveal a question's follow-ups. Multi
// records whether the configuration used the list form so it round-trips.
type Trigger struct {
	Values []any
	Multi  bool
}

// When builds a single-value trigger.
func When(value any) *Trigger {
	return &Trigger{Values: []any{value}}
}

// WhenAny builds a list trigger.
func WhenAny(values ...any) *Trigger {
	return &Trigger{Values: append([]any(nil), values...), Multi: true}
}

// IsZero reports whether the trigger holds no values.
func (t Trigger) IsZero() bool {
	return len(t.Values) == 0
}

// MarshalJSON emits a scalar or a list depending on the configured form.
func (t Trigger) MarshalJSON() ([]byte, error) {
	if t.Multi || len(t.Values) != 1 {
		return json.Marshal(t.Values)
	}
	return json.Marshal(t.Values[0])
}

// UnmarshalJSON accepts a scalar or a list of scalars.
func (t *Trigger) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: decode trigger: %w", err)
	}
	t.assign(raw)
	return nil
}

// UnmarshalYAML accepts a scalar or a sequence node.
func (t *Trigger) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("model: decode trigger: %w", err)
	}
	t.assign(raw)
	return nil
}

func (t *Trigger) assign(raw any) {
	switch typed := raw.(type) {
	case nil:
		t.Values, t.Multi = nil, false
	case []any:
		t.Values, t.Multi = typed, true
	default:
		t.Values, t.Multi = []any{typed}, false
	}
}

// Option is one selectable choice. Plain string options use the same text
// for value and label.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// DisplayLabel returns the label, falling back to the value.
func (o Option) DisplayLabel() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

// UnmarshalJSON accepts a plain string or a value/label object.
func (o *Option) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*o = Option{Value: text, Label: text}
		return nil
	}
	type plain Option
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("model: decode option: %w", err)
	}
	*o = Option(obj)
	return nil
}

// UnmarshalYAML accepts a scalar or a mapping node.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*o = Option{Value: node.Value, Label: node.Value}
		return nil
	}
	type plain Option
	var obj plain
	if err := node.Decode(&obj); err != nil {
		return fmt.Errorf("model: decode option: %w", err)
	}
	*o = Option(obj)
	return nil
}

// OptionValues returns plain string options.
func OptionValues(values ...string) []Option {
	out := make([]Option, 0, len(values))
	for _, value := range values {
		out = append(out, Option{Value: value, Label: value})
	}
	return out
}

func scalarText(raw any) (string, error) {
	switch typed := raw.(type) {
	case string:
		return typed, nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(typed), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value %T", raw)
	}
}
