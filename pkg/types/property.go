package types

import (
	"fmt"
	"time"
)

// Property is a named, typed value slot seen through its primitive form.
// Backends never learn the user type behind a property; they hand it a
// Reader to serialise it or a Writer to populate it.
type Property interface {
	// Name returns the name given at construction. It never changes.
	Name() string

	// Kind returns the primitive kind the property converts to.
	Kind() Kind

	// AcceptRead converts the value to its primitive and passes it to the
	// matching Reader method.
	AcceptRead(r Reader) error

	// AcceptWrite fills a scratch primitive through the matching Writer
	// method, converts it back and stores it. On error the value is
	// unchanged.
	AcceptWrite(w Writer) error

	// Clone returns an unowned copy carrying the same name and value.
	Clone() Property
}

// Prop binds a name to a value of type T and the conversion that maps T
// onto the primitive P.
type Prop[T any, P Primitive[P]] struct {
	name  string
	value T
	conv  Conversion[T, P]
}

var _ Property = (*Prop[int, Int])(nil)

// NewProperty declares a property owned by owner and appends it to the
// owner's property list. The name must be non-empty and unique within the
// owner; violating either is a programming error and panics.
func NewProperty[T any, P Primitive[P]](owner *Entity, name string, value T, conv Conversion[T, P]) *Prop[T, P] {
	if owner == nil {
		panic(fmt.Sprintf("types: property %q declared without an owner; use NewFreeProperty", name))
	}
	p := NewFreeProperty(name, value, conv)
	owner.AddProperty(p)
	return p
}

// NewFreeProperty creates an unowned property, typically to put into a
// Collection.
func NewFreeProperty[T any, P Primitive[P]](name string, value T, conv Conversion[T, P]) *Prop[T, P] {
	if name == "" {
		panic("types: property name must not be empty")
	}
	if conv == nil {
		panic(fmt.Sprintf("types: property %q has no conversion", name))
	}
	return &Prop[T, P]{name: name, value: value, conv: conv}
}

func (p *Prop[T, P]) Name() string { return p.name }

func (p *Prop[T, P]) Kind() Kind {
	var zero P
	return zero.Kind()
}

// Value returns the current value.
func (p *Prop[T, P]) Value() T { return p.value }

// Set replaces the current value.
func (p *Prop[T, P]) Set(v T) { p.value = v }

func (p *Prop[T, P]) AcceptRead(r Reader) error {
	return p.conv.ToPrimitive(p.value).read(r)
}

func (p *Prop[T, P]) AcceptWrite(w Writer) error {
	var scratch P
	prim, err := scratch.fill(w)
	if err != nil {
		return err
	}
	v, err := p.conv.FromPrimitive(prim)
	if err != nil {
		return fmt.Errorf("property %q: %w", p.name, err)
	}
	p.value = v
	return nil
}

// Clone copies name, value and conversion. Reference types inside T
// (slices, maps) are shared with the original.
func (p *Prop[T, P]) Clone() Property {
	return &Prop[T, P]{name: p.name, value: p.value, conv: p.conv}
}

// CopyWith clones p and assigns v to the copy.
func CopyWith(p Property, v Value) (Property, error) {
	c := p.Clone()
	if err := Assign(c, v); err != nil {
		return nil, err
	}
	return c, nil
}

// Shorthand names for properties over the built-in conversions.
type (
	BoolProperty    = Prop[bool, Bool]
	CharProperty    = Prop[rune, Char]
	ByteProperty    = Prop[byte, Char]
	IntProperty     = Prop[int, Int]
	Int32Property   = Prop[int32, Int]
	Int64Property   = Prop[int64, Int]
	UintProperty    = Prop[uint, Uint]
	Uint64Property  = Prop[uint64, Uint]
	Float64Property = Prop[float64, Double]
	StringProperty  = Prop[string, String]
	BytesProperty   = Prop[[]byte, String]
	TimeProperty    = Prop[time.Time, Int]
)

// Owned constructors for the built-in conversions.

func NewBool(owner *Entity, name string, v bool) *BoolProperty {
	return NewProperty(owner, name, v, Conversion[bool, Bool](BoolConversion{}))
}

func NewChar(owner *Entity, name string, v rune) *CharProperty {
	return NewProperty(owner, name, v, Conversion[rune, Char](CharConversion{}))
}

func NewByte(owner *Entity, name string, v byte) *ByteProperty {
	return NewProperty(owner, name, v, Conversion[byte, Char](ByteConversion{}))
}

func NewInt(owner *Entity, name string, v int) *IntProperty {
	return NewProperty(owner, name, v, Conversion[int, Int](IntConversion{}))
}

func NewInt32(owner *Entity, name string, v int32) *Int32Property {
	return NewProperty(owner, name, v, Conversion[int32, Int](Int32Conversion{}))
}

func NewInt64(owner *Entity, name string, v int64) *Int64Property {
	return NewProperty(owner, name, v, Conversion[int64, Int](Int64Conversion{}))
}

func NewUint(owner *Entity, name string, v uint) *UintProperty {
	return NewProperty(owner, name, v, Conversion[uint, Uint](UintConversion{}))
}

func NewUint64(owner *Entity, name string, v uint64) *Uint64Property {
	return NewProperty(owner, name, v, Conversion[uint64, Uint](Uint64Conversion{}))
}

func NewFloat64(owner *Entity, name string, v float64) *Float64Property {
	return NewProperty(owner, name, v, Conversion[float64, Double](Float64Conversion{}))
}

func NewString(owner *Entity, name string, v string) *StringProperty {
	return NewProperty(owner, name, v, Conversion[string, String](StringConversion{}))
}

func NewBytes(owner *Entity, name string, v []byte) *BytesProperty {
	return NewProperty(owner, name, v, Conversion[[]byte, String](BytesConversion{}))
}

func NewTime(owner *Entity, name string, v time.Time) *TimeProperty {
	return NewProperty(owner, name, v, Conversion[time.Time, Int](TimeConversion{}))
}

// NewEnum declares an enumeration property that accepts any integer the
// enum type can hold. Use NewProperty with NewEnumConversion to restrict
// loads to the defined cases.
func NewEnum[E Integer](owner *Entity, name string, v E) *Prop[E, Int] {
	return NewProperty(owner, name, v, Conversion[E, Int](EnumConversion[E]{}))
}

// NewDynamic declares an owned property whose Go type is the natural
// type of kind k (bool, rune, int64, uint64, float64, string), starting
// at the zero value. It is meant for entities whose shape is only known
// at run time, such as those declared in a config file.
func NewDynamic(owner *Entity, name string, k Kind) (Property, error) {
	if owner == nil {
		panic(fmt.Sprintf("types: property %q declared without an owner; use NewFreeDynamic", name))
	}
	p, err := NewFreeDynamic(name, k)
	if err != nil {
		return nil, err
	}
	owner.AddProperty(p)
	return p, nil
}

// NewFreeDynamic is the unowned form of NewDynamic.
func NewFreeDynamic(name string, k Kind) (Property, error) {
	switch k {
	case KindBool:
		return NewFreeProperty(name, false, Conversion[bool, Bool](BoolConversion{})), nil
	case KindChar:
		return NewFreeProperty(name, rune(0), Conversion[rune, Char](CharConversion{})), nil
	case KindInt:
		return NewFreeProperty(name, int64(0), Conversion[int64, Int](Int64Conversion{})), nil
	case KindUint:
		return NewFreeProperty(name, uint64(0), Conversion[uint64, Uint](Uint64Conversion{})), nil
	case KindDouble:
		return NewFreeProperty(name, float64(0), Conversion[float64, Double](Float64Conversion{})), nil
	case KindString:
		return NewFreeProperty(name, "", Conversion[string, String](StringConversion{})), nil
	default:
		return nil, fmt.Errorf("property %q: %w: %s", name, ErrUnsupportedPrimitive, k)
	}
}
