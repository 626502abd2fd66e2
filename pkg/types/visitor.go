package types

// Reader is the read capability a backend implements once to serialise
// properties of any user type. Each method receives the primitive form of
// a property's value; a nil error means the value was accepted.
type Reader interface {
	ReadBool(v bool) error
	ReadChar(v rune) error
	ReadInt(v int64) error
	ReadUint(v uint64) error
	ReadDouble(v float64) error
	ReadString(v string) error
}

// Writer is the write capability a backend implements to populate
// properties. Each method fills the primitive it is handed; the property
// converts the result back to its user type.
type Writer interface {
	WriteBool(v *bool) error
	WriteChar(v *rune) error
	WriteInt(v *int64) error
	WriteUint(v *uint64) error
	WriteDouble(v *float64) error
	WriteString(v *string) error
}

// UnsupportedReader rejects every kind with ErrUnsupportedPrimitive.
// Embed it in a visitor that handles only some kinds and override those.
type UnsupportedReader struct{}

func (UnsupportedReader) ReadBool(bool) error { return unsupported(KindBool) }
func (UnsupportedReader) ReadChar(rune) error { return unsupported(KindChar) }
func (UnsupportedReader) ReadInt(int64) error { return unsupported(KindInt) }
func (UnsupportedReader) ReadUint(uint64) error { return unsupported(KindUint) }
func (UnsupportedReader) ReadDouble(float64) error { return unsupported(KindDouble) }
func (UnsupportedReader) ReadString(string) error { return unsupported(KindString) }

// UnsupportedWriter is the Writer counterpart of UnsupportedReader.
type UnsupportedWriter struct{}

func (UnsupportedWriter) WriteBool(*bool) error { return unsupported(KindBool) }
func (UnsupportedWriter) WriteChar(*rune) error { return unsupported(KindChar) }
func (UnsupportedWriter) WriteInt(*int64) error { return unsupported(KindInt) }
func (UnsupportedWriter) WriteUint(*uint64) error { return unsupported(KindUint) }
func (UnsupportedWriter) WriteDouble(*float64) error { return unsupported(KindDouble) }
func (UnsupportedWriter) WriteString(*string) error { return unsupported(KindString) }

func unsupported(k Kind) error {
	return &kindError{kind: k}
}

// kindError reports the kind a visitor refused.
type kindError struct{ kind Kind }

func (e *kindError) Error() string {
	return ErrUnsupportedPrimitive.Error() + ": " + e.kind.String()
}

func (e *kindError) Unwrap() error { return ErrUnsupportedPrimitive }
