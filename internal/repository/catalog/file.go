package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/domain/movie"
)

// Reserved record keys. Everything else is carried through as movie attributes.
const (
	keyTitle      = "title"
	keyOverview   = "overview"
	keyEmbeddings = "embeddings"
)

// rawRecord is one catalog object as it appeared in the file.
type rawRecord struct {
	title  string
	keys   []string
	fields map[string]json.RawMessage
}

// FileRepository reads and writes the movie catalog as a JSON array file.
// Save reuses the key order and raw field text of the records returned by
// the last Load, so a partial augmentation only rewrites what changed.
type FileRepository struct {
	path string

	mu     sync.Mutex
	loaded []rawRecord
}

// NewFileRepository creates a repository bound to one catalog file.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: filepath.Clean(path)}
}

// Path returns the catalog file location.
func (r *FileRepository) Path() string { return r.path }

// Load parses the catalog file. Records without an "embeddings" array come back without a vector.
func (r *FileRepository) Load(ctx context.Context) ([]movie.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", r.path, err)
	}

	records, err := parseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidCatalog, r.path, err)
	}

	movies := make([]movie.Movie, 0, len(records))
	for i := range records {
		m, err := decodeRecord(records[i].fields)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", domain.ErrInvalidCatalog, i, err)
		}
		records[i].title = m.Title()
		movies = append(movies, m)
	}

	r.mu.Lock()
	r.loaded = records
	r.mu.Unlock()
	return movies, nil
}

// Save rewrites the catalog file atomically: a temp file in the same directory is renamed over the original.
func (r *FileRepository) Save(ctx context.Context, movies []movie.Movie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	loaded := r.loaded
	r.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := range movies {
		var prev *rawRecord
		if i < len(loaded) && loaded[i].title == movies[i].Title() {
			prev = &loaded[i]
		}
		rec, err := encodeRecord(&movies[i], prev)
		if err != nil {
			return fmt.Errorf("marshal catalog record %d: %w", i, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(rec)
	}
	buf.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return fmt.Errorf("format catalog: %w", err)
	}
	return writeAtomic(r.path, out.Bytes())
}

// parseRecords splits a JSON array of objects, keeping each object's key order.
func parseRecords(data []byte) ([]rawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '['); err != nil {
		return nil, fmt.Errorf("catalog must be an array: %w", err)
	}

	var records []rawRecord
	for i := 0; dec.More(); i++ {
		rec, err := parseObject(dec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after catalog array")
	}
	return records, nil
}

func parseObject(dec *json.Decoder) (rawRecord, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return rawRecord{}, fmt.Errorf("record must be an object")
	}

	rec := rawRecord{fields: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return rawRecord{}, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return rawRecord{}, fmt.Errorf("field %q: %w", key, err)
		}
		if _, dup := rec.fields[key]; !dup {
			rec.keys = append(rec.keys, key)
		}
		rec.fields[key] = raw
	}
	if err := expectDelim(dec, '}'); err != nil {
		return rawRecord{}, err
	}
	return rec, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func decodeRecord(rec map[string]json.RawMessage) (movie.Movie, error) {
	var title, overview string
	if err := requireString(rec, keyTitle, &title); err != nil {
		return movie.Movie{}, err
	}
	if err := requireString(rec, keyOverview, &overview); err != nil {
		return movie.Movie{}, err
	}

	var vector []float32
	if v, ok := rec[keyEmbeddings]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &vector); err != nil {
			return movie.Movie{}, fmt.Errorf("%q must be an array of numbers: %w", keyEmbeddings, err)
		}
	}

	attrs := make(map[string]any, len(rec))
	for k, v := range rec {
		if k == keyTitle || k == keyOverview || k == keyEmbeddings {
			continue
		}
		val, err := decodeAny(v)
		if err != nil {
			return movie.Movie{}, fmt.Errorf("field %q: %w", k, err)
		}
		attrs[k] = val
	}

	return movie.New(title, overview, attrs, vector)
}

// encodeRecord writes m as a JSON object. With prev, its key order is kept and
// every field whose value is unchanged is copied verbatim; new attributes
// follow in sorted order and a new "embeddings" field goes last.
func encodeRecord(m *movie.Movie, prev *rawRecord) ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	var keys []string
	put := func(k string, raw json.RawMessage) {
		if _, ok := fields[k]; !ok {
			keys = append(keys, k)
		}
		fields[k] = raw
	}
	encode := func(k string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		put(k, raw)
		return nil
	}

	attrs := m.Attributes()
	if prev != nil {
		for _, k := range prev.keys {
			switch k {
			case keyTitle, keyOverview, keyEmbeddings:
				put(k, prev.fields[k])
			default:
				if _, ok := attrs[k]; ok {
					put(k, prev.fields[k])
				}
			}
		}
	}

	if !sameString(fields[keyTitle], m.Title()) {
		if err := encode(keyTitle, m.Title()); err != nil {
			return nil, err
		}
	}
	if !sameString(fields[keyOverview], m.Overview()) {
		if err := encode(keyOverview, m.Overview()); err != nil {
			return nil, err
		}
	}
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		if _, ok := fields[k]; ok {
			continue
		}
		if err := encode(k, attrs[k]); err != nil {
			return nil, err
		}
	}

	switch {
	case m.HasVector() && !sameVector(fields[keyEmbeddings], m.Vector()):
		if err := encode(keyEmbeddings, m.Vector()); err != nil {
			return nil, err
		}
	case !m.HasVector() && fields[keyEmbeddings] != nil && !isNull(fields[keyEmbeddings]):
		put(keyEmbeddings, json.RawMessage("null"))
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sameString(raw json.RawMessage, want string) bool {
	var got string
	return raw != nil && json.Unmarshal(raw, &got) == nil && got == want
}

func sameVector(raw json.RawMessage, want []float32) bool {
	var got []float32
	return raw != nil && json.Unmarshal(raw, &got) == nil && slices.Equal(got, want)
}

func requireString(rec map[string]json.RawMessage, key string, dst *string) error {
	v, ok := rec[key]
	if !ok || isNull(v) {
		return fmt.Errorf("%q is required", key)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%q must be a string", key)
	}
	return nil
}

// decodeAny keeps numbers as json.Number so attributes are written back unchanged.
func decodeAny(v json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}
