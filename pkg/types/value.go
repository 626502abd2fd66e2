package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// Value holds one primitive of any kind. Backends that store rows
// generically (in memory, in JSON files) keep Values; the zero Value has
// no kind and is invalid.
type Value struct {
	kind Kind
	i    int64 // bool (0/1), char, int
	u    uint64
	f    float64
	s    string
}

// Constructors for each kind.
func BoolValue(v bool) Value {
	var i int64
	if v {
		i = 1
	}
	return Value{kind: KindBool, i: i}
}

func CharValue(v rune) Value { return Value{kind: KindChar, i: int64(v)} }
func IntValue(v int64) Value { return Value{kind: KindInt, i: v} }
func UintValue(v uint64) Value { return Value{kind: KindUint, u: v} }
func DoubleValue(v float64) Value { return Value{kind: KindDouble, f: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

// ZeroValue returns the zero value of kind k.
func ZeroValue(k Kind) Value { return Value{kind: k} }

// Kind returns the value's kind; zero for an invalid Value.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the value carries a kind.
func (v Value) IsValid() bool { return v.kind.Valid() }

// Typed accessors return the zero value of their type when the kind differs.
func (v Value) Bool() bool {
	return v.kind == KindBool && v.i != 0
}

func (v Value) Char() rune {
	if v.kind != KindChar {
		return 0
	}
	return rune(v.i)
}

func (v Value) Int() int64 {
	if v.kind != KindInt {
		return 0
	}
	return v.i
}

func (v Value) Uint() uint64 {
	if v.kind != KindUint {
		return 0
	}
	return v.u
}

func (v Value) Double() float64 {
	if v.kind != KindDouble {
		return 0
	}
	return v.f
}

func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// Interface returns the payload as a native Go value: bool, rune (as a
// one-character string), int64, uint64, float64 or string.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.Bool()
	case KindChar:
		return string(v.Char())
	case KindInt:
		return v.i
	case KindUint:
		return v.u
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUint:
		return v.u == o.u
	case KindDouble:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	default:
		return v.i == o.i
	}
}

// String renders the value as text that ParseValue accepts.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindChar:
		return string(v.Char())
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return "<invalid>"
	}
}

// MarshalJSON encodes the payload without kind information.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsValid() {
		return []byte("null"), nil
	}
	if v.kind == KindDouble && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
		return nil, fmt.Errorf("%w: %v cannot be encoded as JSON", ErrOutOfRange, v.f)
	}
	return json.Marshal(v.Interface())
}

// ParseValue parses text as a value of kind k.
func ParseValue(k Kind, text string) (Value, error) {
	switch k {
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a bool", ErrKindMismatch, text)
		}
		return BoolValue(b), nil
	case KindChar:
		if utf8.RuneCountInString(text) != 1 {
			return Value{}, fmt.Errorf("%w: %q is not a single character", ErrKindMismatch, text)
		}
		r, _ := utf8.DecodeRuneInString(text)
		return CharValue(r), nil
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an int", ErrKindMismatch, text)
		}
		return IntValue(i), nil
	case KindUint:
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a uint", ErrKindMismatch, text)
		}
		return UintValue(u), nil
	case KindDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a double", ErrKindMismatch, text)
		}
		return DoubleValue(f), nil
	case KindString:
		return StringValue(text), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedPrimitive, k)
	}
}

// ConvertValue coerces a decoded value (from JSON or a database driver)
// into a Value of kind k. Numbers are accepted as json.Number, int64,
// uint64 or float64; text as string or []byte. Lossy coercions fail with
// ErrKindMismatch or ErrOutOfRange.
func ConvertValue(k Kind, x any) (Value, error) {
	if b, ok := x.([]byte); ok {
		x = string(b)
	}
	switch k {
	case KindBool:
		switch v := x.(type) {
		case bool:
			return BoolValue(v), nil
		case int64:
			return BoolValue(v != 0), nil
		}
	case KindChar:
		if s, ok := x.(string); ok {
			return ParseValue(KindChar, s)
		}
	case KindInt:
		switch v := x.(type) {
		case int64:
			return IntValue(v), nil
		case json.Number:
			return ParseValue(KindInt, v.String())
		case float64:
			if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
				return Value{}, fmt.Errorf("%w: %v does not fit in int", ErrOutOfRange, v)
			}
			return IntValue(int64(v)), nil
		}
	case KindUint:
		switch v := x.(type) {
		case uint64:
			return UintValue(v), nil
		case int64:
			if v < 0 {
				return Value{}, fmt.Errorf("%w: %d is negative", ErrOutOfRange, v)
			}
			return UintValue(uint64(v)), nil
		case json.Number:
			return ParseValue(KindUint, v.String())
		case float64:
			if v != math.Trunc(v) || v < 0 || v >= math.MaxUint64 {
				return Value{}, fmt.Errorf("%w: %v does not fit in uint", ErrOutOfRange, v)
			}
			return UintValue(uint64(v)), nil
		}
	case KindDouble:
		switch v := x.(type) {
		case float64:
			return DoubleValue(v), nil
		case int64:
			return DoubleValue(float64(v)), nil
		case json.Number:
			return ParseValue(KindDouble, v.String())
		}
	case KindString:
		if s, ok := x.(string); ok {
			return StringValue(s), nil
		}
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedPrimitive, k)
	}
	return Value{}, fmt.Errorf("%w: cannot use %T as %s", ErrKindMismatch, x, k)
}

// Capture reads the current value of p through a visitor.
func Capture(p Property) (Value, error) {
	var c valueReader
	if err := p.AcceptRead(&c); err != nil {
		return Value{}, err
	}
	return c.v, nil
}

// Assign writes v into p through a visitor. The kinds must match; a
// conversion that rejects the value leaves p unchanged.
func Assign(p Property, v Value) error {
	if p.Kind() != v.Kind() {
		return fmt.Errorf("%w: property %q is %s, value is %s", ErrKindMismatch, p.Name(), p.Kind(), v.Kind())
	}
	return p.AcceptWrite(valueWriter{v: v})
}

// valueReader captures whichever primitive it is shown.
type valueReader struct{ v Value }

func (c *valueReader) ReadBool(v bool) error { c.v = BoolValue(v); return nil }
func (c *valueReader) ReadChar(v rune) error { c.v = CharValue(v); return nil }
func (c *valueReader) ReadInt(v int64) error { c.v = IntValue(v); return nil }
func (c *valueReader) ReadUint(v uint64) error { c.v = UintValue(v); return nil }
func (c *valueReader) ReadDouble(v float64) error { c.v = DoubleValue(v); return nil }
func (c *valueReader) ReadString(v string) error { c.v = StringValue(v); return nil }

// valueWriter fills a primitive from a Value of the same kind.
type valueWriter struct{ v Value }

func (w valueWriter) check(k Kind) error {
	if w.v.kind != k {
		return fmt.Errorf("%w: want %s, have %s", ErrKindMismatch, k, w.v.kind)
	}
	return nil
}

func (w valueWriter) WriteBool(p *bool) error {
	if err := w.check(KindBool); err != nil {
		return err
	}
	*p = w.v.Bool()
	return nil
}

func (w valueWriter) WriteChar(p *rune) error {
	if err := w.check(KindChar); err != nil {
		return err
	}
	*p = w.v.Char()
	return nil
}

func (w valueWriter) WriteInt(p *int64) error {
	if err := w.check(KindInt); err != nil {
		return err
	}
	*p = w.v.i
	return nil
}

func (w valueWriter) WriteUint(p *uint64) error {
	if err := w.check(KindUint); err != nil {
		return err
	}
	*p = w.v.u
	return nil
}

func (w valueWriter) WriteDouble(p *float64) error {
	if err := w.check(KindDouble); err != nil {
		return err
	}
	*p = w.v.f
	return nil
}

func (w valueWriter) WriteString(p *string) error {
	if err := w.check(KindString); err != nil {
		return err
	}
	*p = w.v.s
	return nil
}
