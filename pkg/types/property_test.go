package types

import (
	"errors"
	"testing"
)

type planet int

const (
	mercury planet = iota + 1
	venus
	earth
)

// intOnlyReader handles Int and refuses everything else.
type intOnlyReader struct {
	UnsupportedReader
	got []int64
}

func (r *intOnlyReader) ReadInt(v int64) error {
	r.got = append(r.got, v)
	return nil
}

// fixedWriter hands out one Int and refuses everything else.
type fixedWriter struct {
	UnsupportedWriter
	v int64
}

func (w fixedWriter) WriteInt(p *int64) error {
	*p = w.v
	return nil
}

func TestEnumPropertyDispatchesAsInt(t *testing.T) {
	e := NewEntity("orbit")
	p := NewEnum(e, "planet", earth)

	r := &intOnlyReader{}
	if err := p.AcceptRead(r); err != nil {
		t.Fatalf("AcceptRead: %v", err)
	}
	if len(r.got) != 1 || r.got[0] != int64(earth) {
		t.Fatalf("reader saw %v, want [%d]", r.got, earth)
	}

	if err := p.AcceptWrite(fixedWriter{v: int64(venus)}); err != nil {
		t.Fatalf("AcceptWrite: %v", err)
	}
	if p.Value() != venus {
		t.Errorf("value = %v, want venus", p.Value())
	}
}

func TestUnsupportedKindIsReported(t *testing.T) {
	e := NewEntity("label")
	s := NewString(e, "text", "hi")

	err := s.AcceptRead(&intOnlyReader{})
	if !errors.Is(err, ErrUnsupportedPrimitive) {
		t.Fatalf("AcceptRead = %v, want ErrUnsupportedPrimitive", err)
	}
	err = s.AcceptWrite(fixedWriter{v: 1})
	if !errors.Is(err, ErrUnsupportedPrimitive) {
		t.Fatalf("AcceptWrite = %v, want ErrUnsupportedPrimitive", err)
	}
	if s.Value() != "hi" {
		t.Errorf("value changed to %q", s.Value())
	}
}

func TestRejectedWriteLeavesValue(t *testing.T) {
	e := NewEntity("orbit")
	p := NewProperty(e, "planet", mercury, Conversion[planet, Int](NewEnumConversion(mercury, venus, earth)))

	err := p.AcceptWrite(fixedWriter{v: 99})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("AcceptWrite = %v, want ErrOutOfRange", err)
	}
	if p.Value() != mercury {
		t.Errorf("value = %v, want mercury", p.Value())
	}
}

func TestPropertyKinds(t *testing.T) {
	e := NewEntity("all")
	tests := []struct {
		p    Property
		want Kind
	}{
		{NewBool(e, "bool", true), KindBool},
		{NewChar(e, "char", 'x'), KindChar},
		{NewByte(e, "byte", 'y'), KindChar},
		{NewInt(e, "int", 1), KindInt},
		{NewInt32(e, "int32", 1), KindInt},
		{NewInt64(e, "int64", 1), KindInt},
		{NewUint(e, "uint", 1), KindUint},
		{NewUint64(e, "uint64", 1), KindUint},
		{NewFloat64(e, "float64", 1), KindDouble},
		{NewString(e, "string", "s"), KindString},
		{NewBytes(e, "bytes", []byte("b")), KindString},
	}
	for _, tt := range tests {
		t.Run(tt.p.Name(), func(t *testing.T) {
			if got := tt.p.Kind(); got != tt.want {
				t.Errorf("Kind() = %s, want %s", got, tt.want)
			}
		})
	}
	if got := len(e.Properties()); got != len(tests) {
		t.Errorf("entity has %d properties, want %d", got, len(tests))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	e := NewEntity("counter")
	n := NewInt(e, "n", 1)

	c := n.Clone().(*IntProperty)
	c.Set(2)
	if n.Value() != 1 {
		t.Errorf("original changed to %d", n.Value())
	}
	if c.Name() != "n" {
		t.Errorf("clone name = %q", c.Name())
	}
	if len(e.Properties()) != 1 {
		t.Errorf("clone must not join the owner")
	}
}

func TestCopyWith(t *testing.T) {
	e := NewEntity("counter")
	n := NewInt(e, "n", 1)

	c, err := CopyWith(n, IntValue(5))
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := Capture(c); v.Int() != 5 {
		t.Errorf("copy holds %v", v)
	}
	if n.Value() != 1 {
		t.Errorf("original changed to %d", n.Value())
	}
	if _, err := CopyWith(n, StringValue("5")); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("CopyWith with wrong kind = %v", err)
	}
}

func TestNewDynamic(t *testing.T) {
	e := NewEntity("dyn")
	for _, k := range Kinds {
		p, err := NewDynamic(e, k.String(), k)
		if err != nil {
			t.Fatalf("NewDynamic(%s): %v", k, err)
		}
		if p.Kind() != k {
			t.Errorf("kind = %s, want %s", p.Kind(), k)
		}
	}
	if _, err := NewFreeDynamic("bad", Kind(0)); !errors.Is(err, ErrUnsupportedPrimitive) {
		t.Errorf("NewFreeDynamic(0) = %v", err)
	}
}

func TestDeclarationPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"nil owner", func() { NewInt(nil, "n", 0) }},
		{"empty name", func() { NewInt(NewEntity("x"), "", 0) }},
		{"duplicate name", func() {
			e := NewEntity("x")
			NewInt(e, "n", 0)
			NewString(e, "n", "")
		}},
		{"empty entity type", func() { NewEntity("") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected a panic")
				}
			}()
			tt.fn()
		})
	}
}
