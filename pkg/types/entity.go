package types

import (
	"errors"
	"fmt"
)

// Entity life-cycle states. An entity starts unsaved; loading is a
// separate origin that skips the save.
const (
	StateUnsaved = "unsaved"
	StateSaved   = "saved"
	StateLoaded  = "loaded"
	StateDeleted = "deleted"
)

// Entity is a named aggregate of properties: one record of an entity type.
// Embed *Entity in a struct and declare its properties with NewProperty
// (or a typed shorthand) to get Save, Update, Load and Delete.
//
// An Entity is not safe for concurrent use.
type Entity struct {
	entityType  string
	props       []Property
	persistence Persistence
	state       string
}

// NewEntity creates an entity of the given type with no properties and no
// persistence. The type must be non-empty; an empty type panics.
func NewEntity(entityType string) *Entity {
	if entityType == "" {
		panic("types: entity type must not be empty")
	}
	return &Entity{entityType: entityType, state: StateUnsaved}
}

// Type returns the entity type name (the logical table).
func (e *Entity) Type() string { return e.entityType }

// State returns the life-cycle state reached by the last successful
// operation.
func (e *Entity) State() string { return e.state }

// AddProperty appends p to the entity's properties. Names must be
// non-empty and unique within the entity; a duplicate panics because
// lookups would otherwise silently ignore it.
func (e *Entity) AddProperty(p Property) {
	if p == nil {
		panic("types: nil property")
	}
	if p.Name() == "" {
		panic("types: property name must not be empty")
	}
	if _, ok := e.Lookup(p.Name()); ok {
		panic(fmt.Sprintf("types: entity %q already has a property named %q", e.entityType, p.Name()))
	}
	e.props = append(e.props, p)
}

// Properties returns the properties in declaration order. The slice is a
// copy; the properties are shared.
func (e *Entity) Properties() []Property {
	out := make([]Property, len(e.props))
	copy(out, e.props)
	return out
}

// Names returns the property names in declaration order.
func (e *Entity) Names() []string {
	names := make([]string, len(e.props))
	for i, p := range e.props {
		names[i] = p.Name()
	}
	return names
}

// Lookup returns the first property with exactly the given name.
// A missing property is reported with ok == false, not an error.
func (e *Entity) Lookup(name string) (Property, bool) {
	for _, p := range e.props {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// IsSubset reports whether every property name in c is also a property
// name of e. Values are not compared.
func (e *Entity) IsSubset(c *Collection) bool {
	if c == nil {
		return true
	}
	for _, p := range c.props {
		if _, ok := e.Lookup(p.Name()); !ok {
			return false
		}
	}
	return true
}

// SetPersistence installs the backend used by Save, Update, Load and
// Delete. The entity does not own it and never closes it.
func (e *Entity) SetPersistence(p Persistence) { e.persistence = p }

// Persistence returns the installed backend, or nil.
func (e *Entity) Persistence() Persistence { return e.persistence }

// Save stores the entity as a new record.
func (e *Entity) Save() error {
	if e.persistence == nil {
		return SaveError(e, "no persistence installed").WithKind(ErrNoPersistence)
	}
	if err := e.persistence.Save(e); err != nil {
		return e.raise(OpSave, err)
	}
	e.state = StateSaved
	return nil
}

// Update changes the stored record matching the entity's current values
// to the values in criteria, then adopts those values.
func (e *Entity) Update(criteria *Collection) error {
	if e.persistence == nil {
		return UpdateError(e, "no persistence installed").WithKind(ErrNoPersistence)
	}
	if err := e.persistence.Update(e, criteria); err != nil {
		return e.raise(OpUpdate, err)
	}

	// Stage every new value on a clone first so a failed conversion
	// leaves the entity as it was.
	var targets, staged []Property
	for _, cp := range criteria.Properties() {
		p, ok := e.Lookup(cp.Name())
		if !ok {
			continue
		}
		v, err := Capture(cp)
		if err == nil {
			s := p.Clone()
			if err = Assign(s, v); err == nil {
				targets = append(targets, p)
				staged = append(staged, s)
			}
		}
		if err != nil {
			return Fail(OpUpdate, e, err).With("stored update could not be applied to the entity")
		}
	}
	for i, p := range targets {
		v, err := Capture(staged[i])
		if err == nil {
			err = Assign(p, v)
		}
		if err != nil {
			return Fail(OpUpdate, e, err).With("stored update could not be applied to the entity")
		}
	}
	return nil
}

// Load populates the entity from the first stored record matching criteria.
func (e *Entity) Load(criteria *Collection) error {
	if e.persistence == nil {
		return LoadError(e, "no persistence installed").WithKind(ErrNoPersistence)
	}
	if err := e.persistence.Load(e, criteria); err != nil {
		return e.raise(OpLoad, err)
	}
	e.state = StateLoaded
	return nil
}

// Delete removes the stored record matching the entity's current values.
func (e *Entity) Delete() error {
	if e.persistence == nil {
		return DeleteError(e, "no persistence installed").WithKind(ErrNoPersistence)
	}
	if err := e.persistence.Delete(e); err != nil {
		return e.raise(OpDelete, err)
	}
	e.state = StateDeleted
	return nil
}

// raise adds the entity's frame to a backend error, starting a new trace
// when the backend returned a plain error.
func (e *Entity) raise(op Op, err error) error {
	msg := "persistence failed to " + string(op)
	var te *Error
	if errors.As(err, &te) {
		return te.With(msg)
	}
	return Fail(op, e, err).With(msg)
}
