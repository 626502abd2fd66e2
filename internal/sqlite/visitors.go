package sqlite

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/mesh-intelligence/ents/pkg/types"
)

// argReader collects statement arguments from properties. SQLite has no
// unsigned or character type: a Uint is stored bit-for-bit as INTEGER and
// a Char as one-character TEXT. Doubles must be finite because neither
// the NOT NULL columns nor the JSONL files can hold NaN or an infinity.
type argReader struct {
	args []any
}

func (r *argReader) ReadBool(v bool) error {
	var i int64
	if v {
		i = 1
	}
	r.args = append(r.args, i)
	return nil
}

func (r *argReader) ReadChar(v rune) error {
	if !utf8.ValidRune(v) {
		return fmt.Errorf("%w: %U is not a valid character", types.ErrOutOfRange, v)
	}
	r.args = append(r.args, string(v))
	return nil
}

func (r *argReader) ReadInt(v int64) error { r.args = append(r.args, v); return nil }
func (r *argReader) ReadUint(v uint64) error { r.args = append(r.args, int64(v)); return nil }
func (r *argReader) ReadString(v string) error { r.args = append(r.args, v); return nil }

func (r *argReader) ReadDouble(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v is not a finite double", types.ErrOutOfRange, v)
	}
	r.args = append(r.args, v)
	return nil
}

// read appends the argument for each property in order.
func (r *argReader) read(props []types.Property) error {
	for _, p := range props {
		if err := p.AcceptRead(r); err != nil {
			return fmt.Errorf("binding %q: %w", p.Name(), err)
		}
	}
	return nil
}

// value appends the argument for a Value decoded outside a property,
// such as a field of a JSONL record.
func (r *argReader) value(v types.Value) error {
	switch v.Kind() {
	case types.KindBool:
		return r.ReadBool(v.Bool())
	case types.KindChar:
		return r.ReadChar(v.Char())
	case types.KindInt:
		return r.ReadInt(v.Int())
	case types.KindUint:
		return r.ReadUint(v.Uint())
	case types.KindDouble:
		return r.ReadDouble(v.Double())
	case types.KindString:
		return r.ReadString(v.Str())
	default:
		return fmt.Errorf("%w: %s", types.ErrUnsupportedPrimitive, v.Kind())
	}
}

// columnWriter fills a primitive from one scanned column.
type columnWriter struct {
	raw any
}

func (w columnWriter) WriteBool(p *bool) error {
	v, err := decodeColumn(types.KindBool, w.raw)
	if err != nil {
		return err
	}
	*p = v.Bool()
	return nil
}

func (w columnWriter) WriteChar(p *rune) error {
	v, err := decodeColumn(types.KindChar, w.raw)
	if err != nil {
		return err
	}
	*p = v.Char()
	return nil
}

func (w columnWriter) WriteInt(p *int64) error {
	v, err := decodeColumn(types.KindInt, w.raw)
	if err != nil {
		return err
	}
	*p = v.Int()
	return nil
}

func (w columnWriter) WriteUint(p *uint64) error {
	v, err := decodeColumn(types.KindUint, w.raw)
	if err != nil {
		return err
	}
	*p = v.Uint()
	return nil
}

func (w columnWriter) WriteDouble(p *float64) error {
	v, err := decodeColumn(types.KindDouble, w.raw)
	if err != nil {
		return err
	}
	*p = v.Double()
	return nil
}

func (w columnWriter) WriteString(p *string) error {
	v, err := decodeColumn(types.KindString, w.raw)
	if err != nil {
		return err
	}
	*p = v.Str()
	return nil
}

// decodeColumn turns a value scanned from SQLite back into a Value of
// kind k, undoing the storage mapping used by argReader.
func decodeColumn(k types.Kind, raw any) (types.Value, error) {
	if raw == nil {
		return types.ZeroValue(k), nil
	}
	switch k {
	case types.KindUint:
		if i, ok := raw.(int64); ok {
			return types.UintValue(uint64(i)), nil
		}
	case types.KindDouble:
		switch v := raw.(type) {
		case float64:
			return types.DoubleValue(v), nil
		case int64:
			return types.DoubleValue(float64(v)), nil
		}
	}
	return types.ConvertValue(k, raw)
}

var (
	_ types.Reader = (*argReader)(nil)
	_ types.Writer = columnWriter{}
)
