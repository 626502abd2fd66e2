package types

import "fmt"

// Kind identifies one of the primitive value kinds every backend must be
// able to read and write.
type Kind uint8

// Primitive kinds. The zero Kind is invalid.
const (
	KindBool Kind = iota + 1
	KindChar
	KindInt
	KindUint
	KindDouble
	KindString
)

var kindNames = map[Kind]string{
	KindBool:   "bool",
	KindChar:   "char",
	KindInt:    "int",
	KindUint:   "uint",
	KindDouble: "double",
	KindString: "string",
}

// Kinds lists every valid kind in declaration order.
var Kinds = []Kind{KindBool, KindChar, KindInt, KindUint, KindDouble, KindString}

// String returns the lower-case kind name, e.g. "int".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a kind name back to its Kind.
// Returns ErrUnsupportedPrimitive for unknown names.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrUnsupportedPrimitive, name)
}

// The closed set of primitive types. A conversion maps a user type onto
// exactly one of them.
type (
	Bool   bool
	Char   rune
	Int    int64
	Uint   uint64
	Double float64
	// String is a read-only view over string bytes. Go strings are
	// immutable, so the view stays valid for as long as it is referenced.
	String string
)

// Primitive is the sealed constraint over the primitive types. The
// unexported methods keep the set closed: only the six types above
// satisfy it, and each one dispatches to its own visitor method at
// compile time.
type Primitive[P any] interface {
	Bool | Char | Int | Uint | Double | String
	Kind() Kind
	read(r Reader) error
	fill(w Writer) (P, error)
}

func (Bool) Kind() Kind { return KindBool }
func (Char) Kind() Kind { return KindChar }
func (Int) Kind() Kind { return KindInt }
func (Uint) Kind() Kind { return KindUint }
func (Double) Kind() Kind { return KindDouble }
func (String) Kind() Kind { return KindString }

func (v Bool) read(r Reader) error { return r.ReadBool(bool(v)) }
func (v Char) read(r Reader) error { return r.ReadChar(rune(v)) }
func (v Int) read(r Reader) error { return r.ReadInt(int64(v)) }
func (v Uint) read(r Reader) error { return r.ReadUint(uint64(v)) }
func (v Double) read(r Reader) error { return r.ReadDouble(float64(v)) }
func (v String) read(r Reader) error { return r.ReadString(string(v)) }

func (Bool) fill(w Writer) (Bool, error) {
	var v bool
	err := w.WriteBool(&v)
	return Bool(v), err
}

func (Char) fill(w Writer) (Char, error) {
	var v rune
	err := w.WriteChar(&v)
	return Char(v), err
}

func (Int) fill(w Writer) (Int, error) {
	var v int64
	err := w.WriteInt(&v)
	return Int(v), err
}

func (Uint) fill(w Writer) (Uint, error) {
	var v uint64
	err := w.WriteUint(&v)
	return Uint(v), err
}

func (Double) fill(w Writer) (Double, error) {
	var v float64
	err := w.WriteDouble(&v)
	return Double(v), err
}

func (String) fill(w Writer) (String, error) {
	var v string
	err := w.WriteString(&v)
	return String(v), err
}
