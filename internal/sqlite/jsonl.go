package sqlite

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/mesh-intelligence/ents/pkg/types"
)

// jsonlPath returns the file holding the records of one entity type.
func jsonlPath(dataDir, entityType string) string {
	return filepath.Join(dataDir, entityType+".jsonl")
}

// readJSONL returns each non-empty line of path that is a JSON object,
// decoded with json.Number so integers keep full precision. Other lines
// are counted in skipped. A missing file yields no records.
func readJSONL(path string) (records []map[string]any, skipped int, err error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil || obj == nil {
			skipped++
			continue
		}
		records = append(records, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, skipped, nil
}

// writeJSONL atomically replaces path with one line per record using the
// temp-file, fsync, rename sequence.
func writeJSONL(path string, records [][]byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// rawStringKey marks a string field whose bytes are not valid UTF-8.
// JSON strings would replace those bytes, so they are written as
// {"base64": "..."} instead.
const rawStringKey = "base64"

// encodeRecord renders one row as a JSON object with the id first and
// the properties in column order.
func encodeRecord(t *table, id string, values []types.Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	writeField(&buf, idColumn, mustJSON(id))
	for i, c := range t.columns {
		data, err := encodeValue(values[i])
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", c.name, err)
		}
		buf.WriteByte(',')
		writeField(&buf, c.name, data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(v types.Value) ([]byte, error) {
	if v.Kind() == types.KindString && !utf8.ValidString(v.Str()) {
		return json.Marshal(map[string]string{rawStringKey: base64.StdEncoding.EncodeToString([]byte(v.Str()))})
	}
	return json.Marshal(v)
}

func writeField(buf *bytes.Buffer, name string, data []byte) {
	buf.Write(mustJSON(name))
	buf.WriteByte(':')
	buf.Write(data)
}

func mustJSON(s string) []byte {
	data, _ := json.Marshal(s)
	return data
}

// decodeRecord extracts the id and one Value per column from a JSONL
// object. Missing fields take the zero value of their kind and fields
// that are not columns are ignored; a field of the wrong shape makes the
// whole record invalid.
func decodeRecord(t *table, obj map[string]any) (id string, values []types.Value, err error) {
	if raw, ok := obj[idColumn]; ok {
		s, isString := raw.(string)
		if !isString {
			return "", nil, fmt.Errorf("%w: %s is %T", types.ErrKindMismatch, idColumn, raw)
		}
		id = s
	}
	values = make([]types.Value, len(t.columns))
	for i, c := range t.columns {
		raw, ok := obj[c.name]
		if !ok || raw == nil {
			values[i] = types.ZeroValue(c.kind)
			continue
		}
		v, err := decodeValue(c.kind, raw)
		if err != nil {
			return "", nil, fmt.Errorf("field %q: %w", c.name, err)
		}
		values[i] = v
	}
	return id, values, nil
}

func decodeValue(k types.Kind, raw any) (types.Value, error) {
	obj, ok := raw.(map[string]any)
	if !ok || k != types.KindString {
		return types.ConvertValue(k, raw)
	}
	enc, ok := obj[rawStringKey].(string)
	if !ok || len(obj) != 1 {
		return types.Value{}, fmt.Errorf("%w: object is not a %q string", types.ErrKindMismatch, rawStringKey)
	}
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return types.Value{}, fmt.Errorf("%w: %v", types.ErrKindMismatch, err)
	}
	return types.StringValue(string(data)), nil
}
