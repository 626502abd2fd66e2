package types

import "fmt"

// Collection is a bag of unowned property copies, independent of any
// entity. It names a subset of an entity's properties together with the
// values to match (Load) or assign (Update).
type Collection struct {
	props []Property
}

// NewCollection returns a collection holding copies of props.
func NewCollection(props ...Property) *Collection {
	c := &Collection{}
	for _, p := range props {
		c.Add(p)
	}
	return c
}

// Add stores a copy of p. A property with the same name is replaced, so a
// collection never carries two values for one name.
func (c *Collection) Add(p Property) {
	cp := p.Clone()
	for i, existing := range c.props {
		if existing.Name() == cp.Name() {
			c.props[i] = cp
			return
		}
	}
	c.props = append(c.props, cp)
}

// With adds a copy of p and returns c for chaining.
func (c *Collection) With(p Property) *Collection {
	c.Add(p)
	return c
}

// Set adds a copy of p carrying v instead of p's current value.
func (c *Collection) Set(p Property, v Value) error {
	cp, err := CopyWith(p, v)
	if err != nil {
		return err
	}
	c.Add(cp)
	return nil
}

// Properties returns the held copies in insertion order.
func (c *Collection) Properties() []Property {
	if c == nil {
		return nil
	}
	out := make([]Property, len(c.props))
	copy(out, c.props)
	return out
}

// Names returns the property names in insertion order.
func (c *Collection) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.props))
	for i, p := range c.props {
		names[i] = p.Name()
	}
	return names
}

// Lookup returns the copy with the given name.
func (c *Collection) Lookup(name string) (Property, bool) {
	if c == nil {
		return nil, false
	}
	for _, p := range c.props {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Len returns the number of held properties. A nil collection is empty.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.props)
}

// Release drops every copy; the collection is empty afterwards.
func (c *Collection) Release() {
	clear(c.props)
	c.props = nil
}

// ValidateCriteria checks c against e before a backend acts on it: every
// name in c must exist in e (the subset relation) with the same kind.
// The returned error wraps ErrInvalidCriteria.
func ValidateCriteria(e *Entity, c *Collection) error {
	if c == nil {
		return fmt.Errorf("%w: nil collection", ErrInvalidCriteria)
	}
	if !e.IsSubset(c) {
		var unknown []string
		for _, p := range c.props {
			if _, ok := e.Lookup(p.Name()); !ok {
				unknown = append(unknown, p.Name())
			}
		}
		return fmt.Errorf("%w: %q has no properties named %q", ErrInvalidCriteria, e.Type(), unknown)
	}
	for _, p := range c.props {
		ep, _ := e.Lookup(p.Name())
		if ep.Kind() != p.Kind() {
			return fmt.Errorf("%w: property %q is %s in %q, %s in criteria",
				ErrInvalidCriteria, p.Name(), ep.Kind(), e.Type(), p.Kind())
		}
	}
	return nil
}
