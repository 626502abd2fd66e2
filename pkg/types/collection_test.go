package types

import (
	"errors"
	"testing"
)

func TestCollectionHoldsCopies(t *testing.T) {
	e := NewEntity("item")
	qty := NewInt(e, "qty", 1)

	c := NewCollection(qty)
	qty.Set(5)

	held, ok := c.Lookup("qty")
	if !ok {
		t.Fatal("qty not held")
	}
	if v, _ := Capture(held); v.Int() != 1 {
		t.Errorf("held copy followed the original: %v", v)
	}
	if len(e.Properties()) != 1 {
		t.Error("collection copies must not join the entity")
	}
}

func TestCollectionAddReplacesSameName(t *testing.T) {
	e := NewEntity("item")
	qty := NewInt(e, "qty", 1)
	sku := NewString(e, "sku", "A1")

	c := NewCollection().With(qty).With(sku)
	if err := c.Set(qty, IntValue(9)); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d", c.Len())
	}
	if names := c.Names(); names[0] != "qty" || names[1] != "sku" {
		t.Errorf("Names() = %v", names)
	}
	held, _ := c.Lookup("qty")
	if v, _ := Capture(held); v.Int() != 9 {
		t.Errorf("qty = %v", v)
	}

	c.Release()
	if c.Len() != 0 || len(c.Properties()) != 0 {
		t.Error("Release left properties behind")
	}
}

func TestValidateCriteria(t *testing.T) {
	e := NewEntity("item")
	NewInt(e, "qty", 1)

	tests := []struct {
		name    string
		c       *Collection
		wantErr bool
	}{
		{"empty", NewCollection(), false},
		{"matching", NewCollection(NewFreeProperty("qty", 3, Conversion[int, Int](IntConversion{}))), false},
		{"nil", nil, true},
		{"unknown", NewCollection(NewFreeProperty("price", 3, Conversion[int, Int](IntConversion{}))), true},
		{"wrong kind", NewCollection(NewFreeProperty("qty", "3", Conversion[string, String](StringConversion{}))), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCriteria(e, tt.c)
			if tt.wantErr != errors.Is(err, ErrInvalidCriteria) {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestNilCollection(t *testing.T) {
	var c *Collection
	if c.Len() != 0 || c.Names() != nil || c.Properties() != nil {
		t.Error("nil collection is not empty")
	}
	if _, ok := c.Lookup("qty"); ok {
		t.Error("nil collection found a property")
	}
}
