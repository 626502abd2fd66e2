package types

import (
	"errors"
	"math"
	"testing"
	"time"
)

func roundTrip[T comparable, P Primitive[P]](t *testing.T, conv Conversion[T, P], values ...T) {
	t.Helper()
	for _, v := range values {
		got, err := conv.FromPrimitive(conv.ToPrimitive(v))
		if err != nil {
			t.Fatalf("round trip of %v: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip of %v = %v", v, got)
		}
	}
}

func TestConversionRoundTrips(t *testing.T) {
	roundTrip[bool, Bool](t, BoolConversion{}, true, false)
	roundTrip[rune, Char](t, CharConversion{}, 'a', 'λ', 0)
	roundTrip[byte, Char](t, ByteConversion{}, 0, 'z', 255)
	roundTrip[int, Int](t, IntConversion{}, math.MinInt, -1, 0, math.MaxInt)
	roundTrip[int32, Int](t, Int32Conversion{}, math.MinInt32, math.MaxInt32)
	roundTrip[int64, Int](t, Int64Conversion{}, math.MinInt64, math.MaxInt64)
	roundTrip[uint, Uint](t, UintConversion{}, 0, math.MaxUint)
	roundTrip[uint64, Uint](t, Uint64Conversion{}, 0, math.MaxUint64)
	roundTrip[float64, Double](t, Float64Conversion{}, -0.5, math.MaxFloat64, math.SmallestNonzeroFloat64)
	roundTrip[string, String](t, StringConversion{}, "", "hello", "ünïcode")
}

func TestConversionOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"byte above 255", func() error { _, err := ByteConversion{}.FromPrimitive(256); return err }},
		{"negative byte", func() error { _, err := ByteConversion{}.FromPrimitive(-1); return err }},
		{"int32 overflow", func() error { _, err := Int32Conversion{}.FromPrimitive(math.MaxInt32 + 1); return err }},
		{"int8 enum overflow", func() error { _, err := EnumConversion[int8]{}.FromPrimitive(300); return err }},
		{"undefined enum case", func() error { _, err := NewEnumConversion(1, 2, 3).FromPrimitive(4); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("expected ErrOutOfRange, got %v", err)
			}
		})
	}
}

func TestBytesConversionCopies(t *testing.T) {
	src := []byte("abc")
	prim := BytesConversion{}.ToPrimitive(src)
	src[0] = 'X'
	if prim != "abc" {
		t.Fatalf("primitive changed with its source: %q", prim)
	}
	back, err := BytesConversion{}.FromPrimitive(prim)
	if err != nil || string(back) != "abc" {
		t.Fatalf("FromPrimitive = %q, %v", back, err)
	}
}

func TestTimeConversion(t *testing.T) {
	in := time.Date(2024, 2, 29, 13, 14, 15, 123456789, time.FixedZone("X", 3600))
	out, err := TimeConversion{}.FromPrimitive(TimeConversion{}.ToPrimitive(in))
	if err != nil {
		t.Fatal(err)
	}
	if !out.Equal(in) {
		t.Errorf("got %v, want %v", out, in)
	}
	if out.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", out.Location())
	}
}

func TestEnumConversionAllowsDefinedCases(t *testing.T) {
	type color uint8
	conv := NewEnumConversion[color](1, 2)
	got, err := conv.FromPrimitive(2)
	if err != nil || got != 2 {
		t.Fatalf("FromPrimitive(2) = %v, %v", got, err)
	}
}
