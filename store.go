package pubgen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/eringen/pubgen/markdown"
	"github.com/eringen/pubgen/scaffold"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

var (
	// reDecl is the marker pattern: the declaration that owns the data block.
	reDecl = regexp.MustCompile(`(?m)^[ \t]*(?:const|let|var)\s+articles\s*=\s*`)
	// reLazyArray bounds a data block whose array is not valid JSON.
	reLazyArray = regexp.MustCompile(`(?s)^\[.*?\]\s*;`)
)

// IndexStore keeps the article index inside a JavaScript file that also
// carries hand-written glue code. Only the data declaration is ever
// rewritten; everything around it is preserved byte for byte.
//
// IndexStore assumes a single writer.
type IndexStore struct {
	path       string
	outputDir  string
	dataExport string
	linkPrefix string
	author     string
	now        func() time.Time
	logger     *slog.Logger
}

// NewIndexStore creates a store for the index and output locations in cfg.
func NewIndexStore(cfg Config, logger *slog.Logger) *IndexStore {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexStore{
		path:       cfg.IndexFile(),
		outputDir:  cfg.OutputPath(),
		dataExport: cfg.Resolve(cfg.DataExport),
		linkPrefix: cfg.LinkPrefix(),
		author:     cfg.Author,
		now:        cfg.Now,
		logger:     logger.With(slog.String("index", cfg.IndexFile())),
	}
}

// Path returns the index artifact path.
func (s *IndexStore) Path() string { return s.path }

// OutputDir returns the directory rendered pages are written to.
func (s *IndexStore) OutputDir() string { return s.outputDir }

// Load reads the records embedded in the index. A missing file, a file
// without the data declaration, and an unparseable data block all yield
// an empty collection; only I/O errors are returned.
func (s *IndexStore) Load() ([]Record, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("index does not exist yet")
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	span, ok := locateBlock(content)
	if !ok {
		s.logger.Info("no article data found in index")
		return []Record{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(span.array(content), &items); err != nil {
		s.logger.Warn("article data is not a valid array, treating index as empty", slog.Any("error", err))
		return []Record{}, nil
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		rec, err := s.decodeRecord(item)
		if err != nil {
			s.logger.Warn("dropping index entry", slog.Int("position", i), slog.Any("error", err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// NextID returns max(id)+1, or 1 for an empty collection.
func NextID(records []Record) int {
	maxID := 0
	for _, r := range records {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}

// Merge assigns rec the next id and prepends it. No deduplication happens.
func Merge(existing []Record, rec Record) []Record {
	rec.ID = NextID(existing)
	merged := make([]Record, 0, len(existing)+1)
	merged = append(merged, rec)
	return append(merged, existing...)
}

// Persist writes records into the index. If the file already holds a data
// declaration only that span is replaced; otherwise a complete fresh
// artifact with the glue scaffold is written. The write is atomic.
func (s *IndexStore) Persist(records []Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	existing, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read index: %w", err)
	}

	var out bytes.Buffer
	if span, ok := locateBlock(existing); ok {
		out.Write(existing[:span.arrayStart])
		out.Write(data)
		if span.terminated() {
			out.WriteByte(';')
		}
		out.Write(existing[span.end:])
	} else {
		if len(existing) > 0 {
			s.logger.Warn("index has no article data declaration, regenerating it")
		}
		err := scaffold.RenderIndex(&out, scaffold.IndexData{
			DataBlock:  "const articles = " + string(data) + ";",
			LinkPrefix: s.linkPrefix,
		})
		if err != nil {
			return fmt.Errorf("render index scaffold: %w", err)
		}
	}

	if err := writeFileAtomic(s.path, out.Bytes()); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if s.dataExport != "" {
		if err := writeFileAtomic(s.dataExport, append(data, '\n')); err != nil {
			return fmt.Errorf("write data export: %w", err)
		}
	}
	s.logger.Debug("index persisted", slog.Int("records", len(records)))
	return nil
}

// Add loads the index, merges rec and persists the result. It returns rec
// with its assigned id.
func (s *IndexStore) Add(rec Record) (Record, error) {
	existing, err := s.Load()
	if err != nil {
		return Record{}, err
	}
	merged := Merge(existing, rec)
	if err := s.Persist(merged); err != nil {
		return Record{}, err
	}
	return merged[0], nil
}

// NextIDFromDisk returns the id the next merged record would receive.
func (s *IndexStore) NextIDFromDisk() (int, error) {
	records, err := s.Load()
	if err != nil {
		return 0, err
	}
	return NextID(records), nil
}

// SaveOutputFile writes markup to name inside the output directory,
// creating the directory if needed. Existing files are overwritten.
func (s *IndexStore) SaveOutputFile(name, markup string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid output file name %q", name)
	}
	path := filepath.Join(s.outputDir, name)
	if err := writeFileAtomic(path, []byte(markup)); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// FileExists reports whether name already exists in the output directory.
func (s *IndexStore) FileExists(name string) bool {
	_, err := os.Stat(filepath.Join(s.outputDir, name))
	return err == nil
}

// OutputName is the page file name for r: "<slug>.html", or
// "article-<id>.html" when the slug is blank.
func OutputName(r Record) string {
	if strings.TrimSpace(r.Slug) != "" {
		return r.Slug + OutputExt
	}
	return "article-" + strconv.Itoa(r.ID) + OutputExt
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	// atomic.WriteFile leaves new files with temp-file permissions.
	return os.Chmod(path, filePerms)
}

// blockSpan locates the data declaration: content[start:arrayStart] is the
// declaration prefix, the array runs up to the optional semicolon and end
// is just past it.
type blockSpan struct {
	start, arrayStart, arrayEnd, end int
}

func (b blockSpan) array(content []byte) []byte {
	return content[b.arrayStart:b.arrayEnd]
}

// terminated reports whether the declaration ended with a semicolon.
func (b blockSpan) terminated() bool { return b.end > b.arrayEnd }

// locateBlock returns the first declaration whose value is an array
// literal. Declarations bound to anything else, such as glue code reading
// the manager, are skipped.
func locateBlock(content []byte) (blockSpan, bool) {
	for _, m := range reDecl.FindAllIndex(content, -1) {
		if span, ok := spanAt(content, m[0], m[1]); ok {
			return span, true
		}
	}
	return blockSpan{}, false
}

func spanAt(content []byte, start, arrayStart int) (blockSpan, bool) {
	rest := content[arrayStart:]
	if len(rest) == 0 || rest[0] != '[' {
		return blockSpan{}, false
	}

	dec := json.NewDecoder(bytes.NewReader(rest))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err == nil {
		n := int(dec.InputOffset())
		end := n
		trimmed := bytes.TrimLeft(rest[n:], " \t\r\n")
		if len(trimmed) > 0 && trimmed[0] == ';' {
			end = len(rest) - len(trimmed) + 1
		}
		return blockSpan{start: start, arrayStart: arrayStart, arrayEnd: arrayStart + n, end: arrayStart + end}, true
	}

	loc := reLazyArray.FindIndex(rest)
	if loc == nil {
		return blockSpan{}, false
	}
	arrayEnd := bytes.LastIndexByte(rest[:loc[1]], ']') + 1
	return blockSpan{start: start, arrayStart: arrayStart, arrayEnd: arrayStart + arrayEnd, end: arrayStart + loc[1]}, true
}

// indexEntry is the persisted shape of a Record. Field order is the
// serialized order.
type indexEntry struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Link        string   `json:"link"`
	Summary     string   `json:"summary"`
	Date        string   `json:"date"`
	DateDisplay string   `json:"dateDisplay"`
	Author      string   `json:"author"`
	Tags        []string `json:"tags"`
}

func toEntry(r Record) indexEntry {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return indexEntry{
		ID:          r.ID,
		Title:       r.Title,
		Slug:        r.Slug,
		Link:        r.Link,
		Summary:     r.Summary,
		Date:        r.Date.Format(markdown.DateLayout),
		DateDisplay: r.DateDisplay,
		Author:      r.Author,
		Tags:        tags,
	}
}

func encodeRecords(records []Record) ([]byte, error) {
	entries := make([]indexEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, toEntry(r))
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeRecord reads the recognized fields of one entry. Absent and null
// fields keep their defaults; a field of the wrong type rejects the entry.
func (s *IndexStore) decodeRecord(item json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return Record{}, fmt.Errorf("entry is not an object: %w", err)
	}

	rec := Record{
		Author: s.author,
		Date:   markdown.Today(s.now),
		Tags:   []string{},
	}

	if raw, ok := present(fields, "id"); ok {
		id, err := decodeInt(raw)
		if err != nil {
			return Record{}, fmt.Errorf("id: %w", err)
		}
		rec.ID = id
	}

	strs := []struct {
		key string
		set func(string)
	}{
		{"title", func(v string) { rec.Title = v }},
		{"slug", rec.SetSlug},
		{"link", func(v string) { rec.Link = v }},
		{"summary", func(v string) { rec.Summary = v }},
		{"dateDisplay", func(v string) { rec.DateDisplay = v }},
		{"author", func(v string) { rec.Author = v }},
	}
	for _, f := range strs {
		raw, ok := present(fields, f.key)
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return Record{}, fmt.Errorf("%s: expected string", f.key)
		}
		f.set(v)
	}

	if raw, ok := present(fields, "date"); ok {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return Record{}, fmt.Errorf("date: expected string")
		}
		d, err := time.Parse(markdown.DateLayout, v)
		if err != nil {
			return Record{}, fmt.Errorf("date: %w", err)
		}
		rec.Date = d
	}

	if raw, ok := present(fields, "tags"); ok && bytes.HasPrefix(raw, []byte("[")) {
		var tags []string
		if err := json.Unmarshal(raw, &tags); err != nil {
			return Record{}, fmt.Errorf("tags: expected array of strings")
		}
		if tags != nil {
			rec.Tags = tags
		}
	}
	return rec, nil
}

// present returns the raw value of key unless it is absent or null.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	return raw, true
}

func decodeInt(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f != float64(int(f)) {
			return 0, fmt.Errorf("%v is not an integer", f)
		}
		return int(f), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.New("expected integer")
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("expected integer, got %q", s)
	}
	return n, nil
}
