package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		kind    Kind
		text    string
		want    Value
		wantErr error
	}{
		{KindBool, "true", BoolValue(true), nil},
		{KindBool, "maybe", Value{}, ErrKindMismatch},
		{KindChar, "é", CharValue('é'), nil},
		{KindChar, "ab", Value{}, ErrKindMismatch},
		{KindInt, "-42", IntValue(-42), nil},
		{KindInt, "4.2", Value{}, ErrKindMismatch},
		{KindUint, "18446744073709551615", UintValue(math.MaxUint64), nil},
		{KindUint, "-1", Value{}, ErrKindMismatch},
		{KindDouble, "2.5", DoubleValue(2.5), nil},
		{KindString, "", StringValue(""), nil},
		{Kind(0), "x", Value{}, ErrUnsupportedPrimitive},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.text, func(t *testing.T) {
			got, err := ParseValue(tt.kind, tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			back, err := ParseValue(tt.kind, got.String())
			if err != nil || !back.Equal(got) {
				t.Errorf("String() %q does not parse back: %v", got.String(), err)
			}
		})
	}
}

func TestConvertValue(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		in      any
		want    Value
		wantErr error
	}{
		{"bool from int", KindBool, int64(0), BoolValue(false), nil},
		{"int from json number", KindInt, json.Number("9007199254740993"), IntValue(9007199254740993), nil},
		{"int from whole float", KindInt, 3.0, IntValue(3), nil},
		{"int from fraction", KindInt, 3.5, Value{}, ErrOutOfRange},
		{"uint from negative", KindUint, int64(-1), Value{}, ErrOutOfRange},
		{"double from int", KindDouble, int64(2), DoubleValue(2), nil},
		{"string from bytes", KindString, []byte("hi"), StringValue("hi"), nil},
		{"string from number", KindString, int64(1), Value{}, ErrKindMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertValue(tt.kind, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{BoolValue(true), CharValue('x'), UintValue(7), StringValue("s"), {}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[true,"x",7,"s",null]` {
		t.Errorf("got %s", data)
	}
	if _, err := json.Marshal(DoubleValue(math.NaN())); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("NaN marshal err = %v", err)
	}
}

func TestCaptureAssign(t *testing.T) {
	e := NewEntity("v")
	b := NewByte(e, "b", 'a')

	v, err := Capture(b)
	if err != nil || !v.Equal(CharValue('a')) {
		t.Fatalf("Capture = %v, %v", v, err)
	}
	if err := Assign(b, CharValue('λ')); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("assigning a non-byte rune = %v", err)
	}
	if err := Assign(b, IntValue(1)); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("assigning the wrong kind = %v", err)
	}
	if b.Value() != 'a' {
		t.Errorf("value changed to %q", b.Value())
	}
}
