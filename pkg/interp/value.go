package interp

import (
	"fmt"
	"math"
	"strings"

	"strata/pkg/frame"
	"strata/pkg/source"
)

type ValueKind int

const (
	KindUnit ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindClosure
)

// Value represents a dynamically-typed value computed by the dispatcher.
// The frame core stores these opaquely.
type Value struct {
	Kind ValueKind
	I64  int64
	F64  float64
	Bool bool
	Str  string
	Fn   *Closure
}

// Closure is a function value together with the upvalue slots it captured
// at creation time. Captured slots are shared with the defining frame, so
// mutation on either side is visible to both.
type Closure struct {
	Name     string
	Params   []frame.Ident
	Body     []frame.Instruction
	Captured map[frame.Ident]*frame.Slot
	File     *source.File
}

// String renders the value as a string.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I64)
	case KindFloat:
		return fmt.Sprintf("%g", v.F64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		return v.Str
	case KindClosure:
		if v.Fn != nil && v.Fn.Name != "" {
			return fmt.Sprintf("<fn %s/%d>", v.Fn.Name, len(v.Fn.Params))
		}
		return "<fn>"
	default:
		return "()"
	}
}

// AsFloat64 converts the value to float64 if possible.
func (v Value) AsFloat64() (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.F64, nil
	case KindInt:
		return float64(v.I64), nil
	case KindBool:
		if v.Bool {
			return 1.0, nil
		}
		return 0.0, nil
	default:
		return 0, fmt.Errorf("cannot convert %s to float", v)
	}
}

// AsInt64 converts the value to int64 if possible.
func (v Value) AsInt64() (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.I64, nil
	case KindFloat:
		return int64(v.F64), nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %s to int", v)
	}
}

// AsBool converts the value to bool if possible.
func (v Value) AsBool() (bool, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.I64 != 0, nil
	case KindFloat:
		return math.Abs(v.F64) > 0, nil
	default:
		return false, fmt.Errorf("cannot convert %s to bool", v)
	}
}

// NewUnit creates the unit Value.
func NewUnit() Value {
	return Value{Kind: KindUnit}
}

// NewInt creates a new integer Value.
func NewInt(i int64) Value {
	return Value{Kind: KindInt, I64: i}
}

// NewFloat creates a new float Value.
func NewFloat(f float64) Value {
	return Value{Kind: KindFloat, F64: f}
}

// NewBool creates a new boolean Value.
func NewBool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// NewString creates a new string Value.
func NewString(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NewClosure creates a new closure Value.
func NewClosure(fn *Closure) Value {
	return Value{Kind: KindClosure, Fn: fn}
}

// evalBinary applies a binary operator to two values, promoting ints to
// floats when the operands are mixed.
func evalBinary(op BinOp, a, b Value) (Value, error) {
	switch op {
	case OpAnd, OpOr:
		x, err := a.AsBool()
		if err != nil {
			return Value{}, err
		}
		y, err := b.AsBool()
		if err != nil {
			return Value{}, err
		}
		if op == OpAnd {
			return NewBool(x && y), nil
		}
		return NewBool(x || y), nil
	}

	// string concatenation and comparison
	if a.Kind == KindString || b.Kind == KindString {
		switch op {
		case OpAdd:
			return NewString(a.String() + b.String()), nil
		case OpEq:
			return NewBool(a.Kind == b.Kind && a.Str == b.Str), nil
		case OpNeq:
			return NewBool(a.Kind != b.Kind || a.Str != b.Str), nil
		case OpLt, OpLe, OpGt, OpGe:
			if a.Kind != KindString || b.Kind != KindString {
				return Value{}, fmt.Errorf("cannot compare %s with %s", a, b)
			}
			return compareOrdered(op, strings.Compare(a.Str, b.Str)), nil
		default:
			return Value{}, fmt.Errorf("unsupported string operation %s", op)
		}
	}

	if a.Kind == KindFloat || b.Kind == KindFloat {
		x, err := a.AsFloat64()
		if err != nil {
			return Value{}, err
		}
		y, err := b.AsFloat64()
		if err != nil {
			return Value{}, err
		}
		return evalFloat(op, x, y)
	}

	x, err := a.AsInt64()
	if err != nil {
		return Value{}, err
	}
	y, err := b.AsInt64()
	if err != nil {
		return Value{}, err
	}
	return evalInt(op, x, y)
}

func evalInt(op BinOp, x, y int64) (Value, error) {
	switch op {
	case OpAdd:
		return NewInt(x + y), nil
	case OpSub:
		return NewInt(x - y), nil
	case OpMul:
		return NewInt(x * y), nil
	case OpDiv:
		if y == 0 {
			return Value{}, fmt.Errorf("integer division by zero")
		}
		return NewInt(x / y), nil
	case OpMod:
		if y == 0 {
			return Value{}, fmt.Errorf("integer modulo by zero")
		}
		return NewInt(x % y), nil
	case OpEq:
		return NewBool(x == y), nil
	case OpNeq:
		return NewBool(x != y), nil
	case OpLt:
		return NewBool(x < y), nil
	case OpLe:
		return NewBool(x <= y), nil
	case OpGt:
		return NewBool(x > y), nil
	case OpGe:
		return NewBool(x >= y), nil
	default:
		return Value{}, fmt.Errorf("unsupported int operation %s", op)
	}
}

func evalFloat(op BinOp, x, y float64) (Value, error) {
	switch op {
	case OpAdd:
		return NewFloat(x + y), nil
	case OpSub:
		return NewFloat(x - y), nil
	case OpMul:
		return NewFloat(x * y), nil
	case OpDiv:
		return NewFloat(x / y), nil
	case OpMod:
		return NewFloat(math.Mod(x, y)), nil
	case OpEq:
		return NewBool(x == y), nil
	case OpNeq:
		return NewBool(x != y), nil
	case OpLt:
		return NewBool(x < y), nil
	case OpLe:
		return NewBool(x <= y), nil
	case OpGt:
		return NewBool(x > y), nil
	case OpGe:
		return NewBool(x >= y), nil
	default:
		return Value{}, fmt.Errorf("unsupported float operation %s", op)
	}
}

func compareOrdered(op BinOp, cmp int) Value {
	switch op {
	case OpLt:
		return NewBool(cmp < 0)
	case OpLe:
		return NewBool(cmp <= 0)
	case OpGt:
		return NewBool(cmp > 0)
	default:
		return NewBool(cmp >= 0)
	}
}
