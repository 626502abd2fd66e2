package types

import (
	"fmt"
	"math"
	"time"
)

// Conversion maps a user type T onto the primitive P and back. Exactly one
// conversion is bound to a property when it is declared, so the mapping is
// fixed at compile time.
//
// ToPrimitive must be total and pure. FromPrimitive must accept any P a
// backend can produce and fail closed (ErrOutOfRange) for values T cannot
// represent. Well-behaved conversions keep FromPrimitive(ToPrimitive(x)) == x.
type Conversion[T any, P Primitive[P]] interface {
	ToPrimitive(v T) P
	FromPrimitive(p P) (T, error)
}

// Integer is the set of integer kinds EnumConversion can map onto Int.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32
}

func outOfRange(v any, target string) error {
	return fmt.Errorf("%w: %v does not fit in %s", ErrOutOfRange, v, target)
}

// BoolConversion maps bool onto Bool.
type BoolConversion struct{}

func (BoolConversion) ToPrimitive(v bool) Bool { return Bool(v) }
func (BoolConversion) FromPrimitive(p Bool) (bool, error) { return bool(p), nil }

// CharConversion maps rune onto Char.
type CharConversion struct{}

func (CharConversion) ToPrimitive(v rune) Char { return Char(v) }
func (CharConversion) FromPrimitive(p Char) (rune, error) { return rune(p), nil }

// ByteConversion maps byte onto Char.
type ByteConversion struct{}

func (ByteConversion) ToPrimitive(v byte) Char { return Char(v) }

func (ByteConversion) FromPrimitive(p Char) (byte, error) {
	if p < 0 || p > math.MaxUint8 {
		return 0, outOfRange(rune(p), "byte")
	}
	return byte(p), nil
}

// IntConversion maps int onto Int.
type IntConversion struct{}

func (IntConversion) ToPrimitive(v int) Int { return Int(v) }

func (IntConversion) FromPrimitive(p Int) (int, error) {
	v := int(p)
	if Int(v) != p {
		return 0, outOfRange(int64(p), "int")
	}
	return v, nil
}

// Int32Conversion maps int32 onto Int.
type Int32Conversion struct{}

func (Int32Conversion) ToPrimitive(v int32) Int { return Int(v) }

func (Int32Conversion) FromPrimitive(p Int) (int32, error) {
	if p < math.MinInt32 || p > math.MaxInt32 {
		return 0, outOfRange(int64(p), "int32")
	}
	return int32(p), nil
}

// Int64Conversion maps int64 onto Int.
type Int64Conversion struct{}

func (Int64Conversion) ToPrimitive(v int64) Int { return Int(v) }
func (Int64Conversion) FromPrimitive(p Int) (int64, error) { return int64(p), nil }

// UintConversion maps uint onto Uint.
type UintConversion struct{}

func (UintConversion) ToPrimitive(v uint) Uint { return Uint(v) }

func (UintConversion) FromPrimitive(p Uint) (uint, error) {
	v := uint(p)
	if Uint(v) != p {
		return 0, outOfRange(uint64(p), "uint")
	}
	return v, nil
}

// Uint64Conversion maps uint64 onto Uint.
type Uint64Conversion struct{}

func (Uint64Conversion) ToPrimitive(v uint64) Uint { return Uint(v) }
func (Uint64Conversion) FromPrimitive(p Uint) (uint64, error) { return uint64(p), nil }

// Float64Conversion maps float64 onto Double.
type Float64Conversion struct{}

func (Float64Conversion) ToPrimitive(v float64) Double { return Double(v) }
func (Float64Conversion) FromPrimitive(p Double) (float64, error) { return float64(p), nil }

// StringConversion maps string onto String.
type StringConversion struct{}

func (StringConversion) ToPrimitive(v string) String { return String(v) }
func (StringConversion) FromPrimitive(p String) (string, error) { return string(p), nil }

// BytesConversion maps []byte onto String. The primitive holds a copy,
// so later changes to the slice do not leak into a backend.
type BytesConversion struct{}

func (BytesConversion) ToPrimitive(v []byte) String { return String(v) }
func (BytesConversion) FromPrimitive(p String) ([]byte, error) { return []byte(p), nil }

// TimeConversion maps time.Time onto Int as Unix nanoseconds. Values come
// back in UTC; the representable range is roughly years 1678 to 2262.
type TimeConversion struct{}

func (TimeConversion) ToPrimitive(v time.Time) Int { return Int(v.UnixNano()) }

func (TimeConversion) FromPrimitive(p Int) (time.Time, error) {
	return time.Unix(0, int64(p)).UTC(), nil
}

// EnumConversion maps an integer-backed enumeration onto Int. The zero
// value accepts any integer that survives the cast; NewEnumConversion
// additionally restricts FromPrimitive to the listed cases.
type EnumConversion[E Integer] struct {
	allowed map[E]struct{}
}

// NewEnumConversion returns a conversion that rejects integers outside values.
func NewEnumConversion[E Integer](values ...E) EnumConversion[E] {
	allowed := make(map[E]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return EnumConversion[E]{allowed: allowed}
}

func (c EnumConversion[E]) ToPrimitive(v E) Int { return Int(v) }

func (c EnumConversion[E]) FromPrimitive(p Int) (E, error) {
	v := E(p)
	if Int(v) != p {
		return 0, outOfRange(int64(p), fmt.Sprintf("%T", v))
	}
	if c.allowed != nil {
		if _, ok := c.allowed[v]; !ok {
			return 0, fmt.Errorf("%w: %d is not a defined %T", ErrOutOfRange, int64(p), v)
		}
	}
	return v, nil
}

// Compile-time checks that the built-ins satisfy Conversion.
var (
	_ Conversion[bool, Bool]      = BoolConversion{}
	_ Conversion[rune, Char]      = CharConversion{}
	_ Conversion[byte, Char]      = ByteConversion{}
	_ Conversion[int, Int]        = IntConversion{}
	_ Conversion[int32, Int]      = Int32Conversion{}
	_ Conversion[int64, Int]      = Int64Conversion{}
	_ Conversion[uint, Uint]      = UintConversion{}
	_ Conversion[uint64, Uint]    = Uint64Conversion{}
	_ Conversion[float64, Double] = Float64Conversion{}
	_ Conversion[string, String]  = StringConversion{}
	_ Conversion[[]byte, String]  = BytesConversion{}
	_ Conversion[time.Time, Int]  = TimeConversion{}
	_ Conversion[int, Int]        = EnumConversion[int]{}
)
