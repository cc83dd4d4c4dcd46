package facet

import "fmt"

// Op identifies a user action on the facet panel.
type Op int

const (
	OpToggle Op = iota + 1
	OpClick
	OpClear
	OpSetScalar
)

func (o Op) String() string {
	switch o {
	case OpToggle:
		return "toggle"
	case OpClick:
		return "click"
	case OpClear:
		return "clear"
	case OpSetScalar:
		return "setScalar"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// ParseOp is the inverse of Op.String.
func ParseOp(s string) (Op, error) {
	for _, o := range []Op{OpToggle, OpClick, OpClear, OpSetScalar} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown action op %q", s)
}

// Action is a discrete user action emitted by the rendering layer.
type Action struct {
	Op        Op
	Dimension Dimension
	Value     string // OpToggle, OpClick
	Extend    bool   // OpClick: modifier key held
	Scalar    Scalar // OpSetScalar
}

// Toggled returns a toggle action.
func Toggled(d Dimension, v string) Action { return Action{Op: OpToggle, Dimension: d, Value: v} }

// Clicked returns a click action, extended when the modifier key is held.
func Clicked(d Dimension, v string, extend bool) Action {
	return Action{Op: OpClick, Dimension: d, Value: v, Extend: extend}
}

// Cleared returns a clear action.
func Cleared(d Dimension) Action { return Action{Op: OpClear, Dimension: d} }

// ScalarSet returns a set-scalar action.
func ScalarSet(d Dimension, v Scalar) Action { return Action{Op: OpSetScalar, Dimension: d, Scalar: v} }

// Reduce applies a to sel and returns the resulting selection.
// On error the input selection is returned unchanged.
func Reduce(sel Selection, a Action) (Selection, error) {
	switch a.Op {
	case OpToggle:
		return sel.Toggle(a.Dimension, a.Value)
	case OpClick:
		return sel.SetExtend(a.Dimension, a.Value, a.Extend)
	case OpClear:
		if !a.Dimension.IsValid() {
			return sel, fmt.Errorf("%w: %q", ErrUnknownDimension, a.Dimension)
		}
		return sel.Clear(a.Dimension), nil
	case OpSetScalar:
		return sel.SetScalar(a.Dimension, a.Scalar)
	}
	return sel, fmt.Errorf("unknown action op %d", int(a.Op))
}
