package facet

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	// ErrUnknownDimension is returned for dimension names the model does not define.
	ErrUnknownDimension = errors.New("unknown dimension")
	// ErrKindMismatch is returned when an operation does not fit the dimension's kind,
	// e.g. toggling a value on a date dimension.
	ErrKindMismatch = errors.New("dimension kind mismatch")
	// ErrInvalidValue is returned for values a query could not carry: the
	// empty string, or a comma inside an enumerated dimension's value.
	ErrInvalidValue = errors.New("invalid facet value")
)

// Scalar is the value of a Date or Flag dimension.
type Scalar struct {
	Date time.Time
	On   bool
}

// DateValue wraps t as a Scalar for a Date dimension.
func DateValue(t time.Time) Scalar { return Scalar{Date: t} }

// FlagValue wraps on as a Scalar for a Flag dimension.
func FlagValue(on bool) Scalar { return Scalar{On: on} }

type entry struct {
	values []string // Multi: sorted, de-duplicated, never empty
	date   time.Time
	on     bool
}

// Selection is the set of active filter constraints across all dimensions.
//
// A dimension missing from the selection is unconstrained. Selection is an
// immutable value: every operation returns a new Selection and leaves the
// receiver untouched. The zero value is the empty selection.
type Selection struct {
	m map[Dimension]entry
}

// Has reports whether d carries a constraint.
func (s Selection) Has(d Dimension) bool {
	_, ok := s.m[d]
	return ok
}

// Len returns the number of constrained dimensions.
func (s Selection) Len() int { return len(s.m) }

// Values returns a copy of the values selected for a Multi dimension.
func (s Selection) Values(d Dimension) []string {
	return slices.Clone(s.m[d].values)
}

// Date returns the day selected for a Date dimension.
func (s Selection) Date(d Dimension) (time.Time, bool) {
	e, ok := s.m[d]
	if !ok || d.Kind() != Date {
		return time.Time{}, false
	}
	return e.date, true
}

// Flag reports whether a Flag dimension is switched on.
func (s Selection) Flag(d Dimension) bool {
	return s.m[d].on
}

// Dimensions returns the constrained dimensions in canonical order.
func (s Selection) Dimensions() []Dimension {
	out := make([]Dimension, 0, len(s.m))
	for d := range s.m {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Dimension) int { return order(a) - order(b) })
	return out
}

// Equal reports whether both selections hold the same constraints.
func (s Selection) Equal(o Selection) bool {
	if len(s.m) != len(o.m) {
		return false
	}
	for d, e := range s.m {
		oe, ok := o.m[d]
		if !ok || !slices.Equal(e.values, oe.values) || !e.date.Equal(oe.date) || e.on != oe.on {
			return false
		}
	}
	return true
}

// Toggle adds value to a Multi dimension if absent and removes it if present.
// Toggling a dimension that is not yet constrained creates it with one value.
func (s Selection) Toggle(d Dimension, value string) (Selection, error) {
	if err := checkValue(d, value); err != nil {
		return s, err
	}
	cur := s.m[d].values
	if slices.Contains(cur, value) {
		return s.withValues(d, without(cur, value)), nil
	}
	return s.withValues(d, append(slices.Clone(cur), value)), nil
}

// SetExtend applies a click on value.
//
// With extend set (modifier key held) the value's membership is flipped and
// the other selected values are kept. Without extend a click replaces the
// selection with exactly {value}, unless the selection already is exactly
// {value}, in which case the dimension is cleared.
func (s Selection) SetExtend(d Dimension, value string, extend bool) (Selection, error) {
	if err := checkValue(d, value); err != nil {
		return s, err
	}
	if extend {
		return s.Toggle(d, value)
	}
	cur := s.m[d].values
	if len(cur) == 1 && cur[0] == value {
		return s.Clear(d), nil
	}
	return s.withValues(d, []string{value}), nil
}

// Clear removes d from the selection. Clearing an absent dimension is a no-op.
func (s Selection) Clear(d Dimension) Selection {
	if !s.Has(d) {
		return s
	}
	next := s.clone()
	delete(next.m, d)
	return next
}

// SetScalar replaces the value of a Date or Flag dimension. A zero date or a
// false flag clears the dimension. Date ranges with from after to are
// accepted as is.
func (s Selection) SetScalar(d Dimension, v Scalar) (Selection, error) {
	if !d.IsValid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownDimension, d)
	}
	switch d.Kind() {
	case Date:
		if v.Date.IsZero() {
			return s.Clear(d), nil
		}
		next := s.clone()
		next.m[d] = entry{date: day(v.Date)}
		return next, nil
	case Flag:
		if !v.On {
			return s.Clear(d), nil
		}
		next := s.clone()
		next.m[d] = entry{on: true}
		return next, nil
	}
	return s, fmt.Errorf("%w: %s is %s, want date or flag", ErrKindMismatch, d, d.Kind())
}

// SetDate is SetScalar for Date dimensions.
func (s Selection) SetDate(d Dimension, t time.Time) (Selection, error) {
	if err := expectKind(d, Date); err != nil {
		return s, err
	}
	return s.SetScalar(d, DateValue(t))
}

// SetFlag is SetScalar for Flag dimensions.
func (s Selection) SetFlag(d Dimension, on bool) (Selection, error) {
	if err := expectKind(d, Flag); err != nil {
		return s, err
	}
	return s.SetScalar(d, FlagValue(on))
}

// withValues stores values for d, dropping d when values is empty.
func (s Selection) withValues(d Dimension, values []string) Selection {
	if len(values) == 0 {
		return s.Clear(d)
	}
	next := s.clone()
	next.m[d] = entry{values: normalize(values)}
	return next
}

func (s Selection) clone() Selection {
	m := make(map[Dimension]entry, len(s.m)+1)
	for d, e := range s.m {
		m[d] = e
	}
	return Selection{m: m}
}

func expectKind(d Dimension, want Kind) error {
	if !d.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownDimension, d)
	}
	if d.Kind() != want {
		return fmt.Errorf("%w: %s is %s, want %s", ErrKindMismatch, d, d.Kind(), want)
	}
	return nil
}

// normalize sorts and de-duplicates values in place.
func normalize(values []string) []string {
	slices.Sort(values)
	return slices.Compact(values)
}

func without(values []string, v string) []string {
	out := make([]string, 0, len(values))
	for _, x := range values {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// day truncates t to its calendar day, expressed in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func checkValue(d Dimension, value string) error {
	if err := expectKind(d, Multi); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%w: empty %s value", ErrInvalidValue, d)
	}
	if byName[d].enumerated && strings.Contains(value, ",") {
		return fmt.Errorf("%w: %s value %q contains a comma", ErrInvalidValue, d, value)
	}
	return nil
}
