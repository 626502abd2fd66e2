package types

import (
	"errors"
	"testing"
)

// recorder is a Persistence that records calls and returns a fixed error.
type recorder struct {
	calls []Op
	err   error
	load  map[string]Value
}

func (r *recorder) Save(e *Entity) error {
	r.calls = append(r.calls, OpSave)
	return r.err
}

func (r *recorder) Update(e *Entity, c *Collection) error {
	r.calls = append(r.calls, OpUpdate)
	if r.err != nil {
		return r.err
	}
	return ValidateCriteria(e, c)
}

func (r *recorder) Load(e *Entity, c *Collection) error {
	r.calls = append(r.calls, OpLoad)
	if r.err != nil {
		return r.err
	}
	for name, v := range r.load {
		p, _ := e.Lookup(name)
		if err := Assign(p, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *recorder) Delete(e *Entity) error {
	r.calls = append(r.calls, OpDelete)
	return r.err
}

type user struct {
	*Entity
	Name  *StringProperty
	Email *StringProperty
	Age   *IntProperty
}

func newUser() *user {
	e := NewEntity("user")
	return &user{
		Entity: e,
		Name:   NewString(e, "name", "ann"),
		Email:  NewString(e, "email", "ann@example.com"),
		Age:    NewInt(e, "age", 30),
	}
}

func TestEntityLookup(t *testing.T) {
	u := newUser()

	p, ok := u.Lookup("email")
	if !ok || p != Property(u.Email) {
		t.Fatalf("Lookup(email) = %v, %v", p, ok)
	}
	if _, ok := u.Lookup("Email"); ok {
		t.Error("lookup must be exact")
	}
	if got := u.Names(); len(got) != 3 || got[0] != "name" || got[1] != "email" || got[2] != "age" {
		t.Errorf("Names() = %v", got)
	}
}

func TestEntityIsSubset(t *testing.T) {
	u := newUser()
	tests := []struct {
		name string
		c    *Collection
		want bool
	}{
		{"empty", NewCollection(), true},
		{"nil", nil, true},
		{"one known", NewCollection(u.Age), true},
		{"all known", NewCollection(u.Name, u.Email, u.Age), true},
		{"unknown name", NewCollection(NewFreeProperty("phone", "", Conversion[string, String](StringConversion{}))), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := u.IsSubset(tt.c); got != tt.want {
				t.Errorf("IsSubset = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntityWithoutPersistence(t *testing.T) {
	u := newUser()
	ops := []struct {
		op Op
		fn func() error
	}{
		{OpSave, u.Save},
		{OpUpdate, func() error { return u.Update(NewCollection(u.Age)) }},
		{OpLoad, func() error { return u.Load(NewCollection()) }},
		{OpDelete, u.Delete},
	}
	for _, tt := range ops {
		t.Run(string(tt.op), func(t *testing.T) {
			err := tt.fn()
			if !errors.Is(err, ErrNoPersistence) {
				t.Fatalf("err = %v, want ErrNoPersistence", err)
			}
			var te *Error
			if !errors.As(err, &te) || te.Op() != tt.op {
				t.Fatalf("err is not an %s *Error: %v", tt.op, err)
			}
		})
	}
	if u.State() != StateUnsaved {
		t.Errorf("state = %s", u.State())
	}
}

func TestEntityDelegatesAndTracksState(t *testing.T) {
	u := newUser()
	r := &recorder{load: map[string]Value{"age": IntValue(41)}}
	u.SetPersistence(r)

	if err := u.Save(); err != nil {
		t.Fatal(err)
	}
	if u.State() != StateSaved {
		t.Errorf("after Save state = %s", u.State())
	}
	if err := u.Load(NewCollection(u.Name)); err != nil {
		t.Fatal(err)
	}
	if u.State() != StateLoaded || u.Age.Value() != 41 {
		t.Errorf("after Load state = %s, age = %d", u.State(), u.Age.Value())
	}
	if err := u.Delete(); err != nil {
		t.Fatal(err)
	}
	if u.State() != StateDeleted {
		t.Errorf("after Delete state = %s", u.State())
	}
	want := []Op{OpSave, OpLoad, OpDelete}
	for i, op := range want {
		if r.calls[i] != op {
			t.Fatalf("calls = %v, want %v", r.calls, want)
		}
	}
}

func TestEntityUpdateAdoptsValues(t *testing.T) {
	u := newUser()
	u.SetPersistence(&recorder{})

	changes := NewCollection()
	if err := changes.Set(u.Email, StringValue("ann@new.example")); err != nil {
		t.Fatal(err)
	}
	if err := u.Update(changes); err != nil {
		t.Fatal(err)
	}
	if u.Email.Value() != "ann@new.example" {
		t.Errorf("email = %q", u.Email.Value())
	}
}

func TestEntityUpdateAllOrNothing(t *testing.T) {
	type tier int
	e := NewEntity("account")
	name := NewString(e, "name", "ann")
	level := NewProperty(e, "tier", tier(0), Conversion[tier, Int](NewEnumConversion[tier](0, 1)))
	e.SetPersistence(&recorder{})

	changes := NewCollection(
		NewFreeProperty("name", "bob", Conversion[string, String](StringConversion{})),
		NewFreeProperty("tier", 7, Conversion[int, Int](IntConversion{})),
	)
	err := e.Update(changes)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	if name.Value() != "ann" || level.Value() != 0 {
		t.Errorf("entity partly updated: name=%q tier=%d", name.Value(), level.Value())
	}
}

func TestEntityBackendErrorGetsFrame(t *testing.T) {
	u := newUser()
	backendErr := LoadError(u.Entity, "disk on fire").WithKind(ErrBackendFailure)
	u.SetPersistence(&recorder{err: backendErr})

	err := u.Load(NewCollection())
	var te *Error
	if !errors.As(err, &te) {
		t.Fatalf("err = %T", err)
	}
	if te != backendErr {
		t.Error("entity must extend the backend's error, not replace it")
	}
	frames := te.Frames()
	if len(frames) != 2 || frames[1].Message != "persistence failed to load" {
		t.Errorf("frames = %+v", frames)
	}
	if u.State() != StateUnsaved {
		t.Errorf("failed load changed state to %s", u.State())
	}
}

func TestEntityPlainBackendError(t *testing.T) {
	u := newUser()
	cause := errors.New("connection reset")
	u.SetPersistence(&recorder{err: cause})

	err := u.Save()
	if !errors.Is(err, cause) || !errors.Is(err, ErrBackendFailure) {
		t.Fatalf("err = %v", err)
	}
}
