package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/ents/pkg/types"
)

// buildEntity creates an entity from its declaration, with every
// property at its zero value.
func buildEntity(d entityDecl) (*types.Entity, error) {
	if d.Type == "" {
		return nil, fmt.Errorf("entity declaration without a type")
	}
	e := types.NewEntity(d.Type)
	seen := make(map[string]bool, len(d.Properties))
	for _, pd := range d.Properties {
		if pd.Name == "" {
			return nil, fmt.Errorf("entity %q: property without a name", d.Type)
		}
		if seen[pd.Name] {
			return nil, fmt.Errorf("entity %q: property %q declared twice", d.Type, pd.Name)
		}
		seen[pd.Name] = true
		kind, err := types.ParseKind(pd.Kind)
		if err != nil {
			return nil, fmt.Errorf("entity %q property %q: %w", d.Type, pd.Name, err)
		}
		if _, err := types.NewDynamic(e, pd.Name, kind); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// parseAssignments turns name=value arguments into a collection of
// copies of e's properties carrying the parsed values.
func parseAssignments(e *types.Entity, args []string) (*types.Collection, error) {
	c := types.NewCollection()
	for _, arg := range args {
		name, text, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("argument %q is not name=value", arg)
		}
		p, ok := e.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%q has no property %q (have %s)", e.Type(), name, strings.Join(e.Names(), ", "))
		}
		v, err := types.ParseValue(p.Kind(), text)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		if err := c.Set(p, v); err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
	}
	return c, nil
}

// assign copies the values held by c into e's properties.
func assign(e *types.Entity, c *types.Collection) error {
	for _, cp := range c.Properties() {
		p, ok := e.Lookup(cp.Name())
		if !ok {
			return fmt.Errorf("%q has no property %q", e.Type(), cp.Name())
		}
		v, err := types.Capture(cp)
		if err != nil {
			return err
		}
		if err := types.Assign(p, v); err != nil {
			return err
		}
	}
	return nil
}

// writeEntity prints e's properties in declaration order, as name=value
// lines or as one JSON object.
func writeEntity(w io.Writer, e *types.Entity, jsonMode bool) error {
	if !jsonMode {
		for _, p := range e.Properties() {
			v, err := types.Capture(p)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s=%s\n", p.Name(), v)
		}
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	typ, _ := json.Marshal(e.Type())
	buf.Write(typ)
	buf.WriteString(`,"properties":{`)
	for i, p := range e.Properties() {
		v, err := types.Capture(p)
		if err != nil {
			return err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(p.Name())
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(data)
	}
	buf.WriteString("}}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
