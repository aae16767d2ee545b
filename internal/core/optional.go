package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Optional carries a field of a partial update. Set is true whenever the
// field was present in the input, including an explicit null.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// ApplyTo writes the value into dst when the field was present.
func (o Optional[T]) ApplyTo(dst *T) {
	if o.Set {
		*dst = o.Value
	}
}

var hundred = decimal.NewFromInt(100)

// Measure is a body measurement such as weight in kg or a body fat
// percentage.
type Measure struct {
	decimal.Decimal
}

func NewMeasure(s string) Measure {
	return Measure{Decimal: decimal.RequireFromString(s)}
}

// MarshalJSON emits a JSON number rather than decimal's default quoted string.
func (m Measure) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Measure) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidMeasure, s)
	}
	if !exponentInRange(d) {
		return fmt.Errorf("%w: %q is out of range", ErrInvalidMeasure, s)
	}
	m.Decimal = d
	return nil
}
