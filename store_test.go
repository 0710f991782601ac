package pubgen

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var testNow = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.Local) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SiteDir = t.TempDir()
	cfg.Now = testNow
	return cfg
}

func setupTestStore(t *testing.T) (*IndexStore, Config) {
	t.Helper()
	cfg := testConfig(t)
	return NewIndexStore(cfg, discardLogger()), cfg
}

func writeIndex(t *testing.T, s *IndexStore, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readIndex(t *testing.T, s *IndexStore) string {
	t.Helper()
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleRecord(id int, slug string) Record {
	r := Record{
		ID:          id,
		Title:       "Title " + slug,
		Summary:     "Summary " + slug,
		Date:        day(2026, 1, 15),
		DateDisplay: "2026年01月01日",
		Tags:        []string{"go"},
		Author:      "tester",
	}
	r.SetSlug(slug)
	return r
}

func TestLoadMissingIndex(t *testing.T) {
	s, _ := setupTestStore(t)
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v", records)
	}
}

func TestLoadWithoutMarker(t *testing.T) {
	s, _ := setupTestStore(t)
	writeIndex(t, s, "console.log('no data here');\n")
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}

	if _, err := s.Add(sampleRecord(0, "first")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	content := readIndex(t, s)
	if !strings.Contains(content, "class ArticleManager") {
		t.Errorf("expected a fresh scaffold:\n%s", content)
	}
	if strings.Contains(content, "no data here") {
		t.Errorf("old content should be replaced:\n%s", content)
	}
	records, err = s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != 1 || records[0].Slug != "first" {
		t.Errorf("records = %+v", records)
	}
}

func TestLoadSkipsNonArrayDeclarations(t *testing.T) {
	s, _ := setupTestStore(t)
	glue := "function render() {\n    const articles = manager.getAllArticles();\n}\n"
	after := "\nrender();\n"
	writeIndex(t, s, glue+`const articles = [{"id": 7, "title": "Kept", "slug": "kept"}];`+after)

	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != 7 {
		t.Fatalf("records = %+v", records)
	}

	added, err := s.Add(sampleRecord(0, "new"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added.ID != 8 {
		t.Errorf("new id = %d, want 8", added.ID)
	}
	content := readIndex(t, s)
	if !strings.HasPrefix(content, glue+"const articles = [\n") {
		t.Errorf("glue before the block changed:\n%s", content)
	}
	if !strings.HasSuffix(content, "];"+after) {
		t.Errorf("glue after the block changed:\n%s", content)
	}
	if !strings.Contains(content, `"title": "Kept"`) || strings.Contains(content, "class ArticleManager") {
		t.Errorf("existing record lost or scaffold written:\n%s", content)
	}
}

func TestPersistWithoutSemicolon(t *testing.T) {
	s, _ := setupTestStore(t)
	writeIndex(t, s, `const articles = [{"id": 1, "title": "A"}].filter(Boolean);`+"\nrender();\n")

	if _, err := s.Add(sampleRecord(0, "b")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	content := readIndex(t, s)
	if !strings.HasSuffix(content, "\n].filter(Boolean);\nrender();\n") {
		t.Errorf("expression after the array changed:\n%s", content)
	}
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %+v", records)
	}
}

func TestLoadCorruptData(t *testing.T) {
	s, _ := setupTestStore(t)
	writeIndex(t, s, "const articles = [{\"id\": 1, \"title\": }];\nclass ArticleManager {}\n")
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestLoadDropsMalformedEntries(t *testing.T) {
	s, _ := setupTestStore(t)
	writeIndex(t, s, `const articles = [
  {"id": 2, "title": "Two", "slug": "two", "date": "2026-01-02", "tags": ["a"]},
  {"id": "x", "title": "bad id"},
  {"id": 1, "title": 42},
  {"id": 3, "title": "Three", "date": "not a date"},
  {"id": 4, "title": "Four", "slug": "four", "author": null}
];
`)
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %#v", len(records), records)
	}
	if records[0].ID != 2 || records[0].Link != "two.html" {
		t.Errorf("first record = %+v", records[0])
	}
	if got := records[1].Author; got != "Sept3rd" {
		t.Errorf("null author should default, got %q", got)
	}
	if got := records[1].Date; !got.Equal(day(2026, 3, 9)) {
		t.Errorf("missing date should default to today, got %v", got)
	}
	if records[1].Tags == nil || len(records[1].Tags) != 0 {
		t.Errorf("missing tags should be empty, got %#v", records[1].Tags)
	}
}

func TestLoadStringID(t *testing.T) {
	s, _ := setupTestStore(t)
	writeIndex(t, s, `let articles = [{"id": "7", "title": "Seven"}];`)
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != 7 {
		t.Fatalf("records = %#v", records)
	}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want int
	}{
		{"empty", nil, 1},
		{"single", []int{1}, 2},
		{"gaps", []int{1, 3, 4}, 5},
		{"unordered", []int{9, 2}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []Record
			for _, id := range tt.ids {
				records = append(records, Record{ID: id})
			}
			if got := NextID(records); got != tt.want {
				t.Errorf("NextID(%v) = %d, want %d", tt.ids, got, tt.want)
			}
		})
	}
}

func TestMergePrepends(t *testing.T) {
	existing := []Record{sampleRecord(3, "c"), sampleRecord(1, "a")}
	merged := Merge(existing, sampleRecord(0, "new"))
	if len(merged) != 3 {
		t.Fatalf("len = %d, want 3", len(merged))
	}
	if merged[0].ID != 4 || merged[0].Slug != "new" {
		t.Errorf("merged[0] = %+v", merged[0])
	}
	if merged[1].Slug != "c" || merged[2].Slug != "a" {
		t.Errorf("existing order not preserved: %q, %q", merged[1].Slug, merged[2].Slug)
	}
	if len(existing) != 2 {
		t.Errorf("input slice modified")
	}
}

func TestPersistFreshScaffold(t *testing.T) {
	s, _ := setupTestStore(t)
	rec, err := s.Add(sampleRecord(0, "first"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if rec.ID != 1 {
		t.Errorf("ID = %d, want 1", rec.ID)
	}

	content := readIndex(t, s)
	if !strings.HasPrefix(strings.SplitN(content, "\n", 2)[1], "const articles = [") {
		t.Errorf("index should start with the data declaration:\n%s", content)
	}
	for _, want := range []string{"class ArticleManager", "getStats()", `"link": "first.html"`, "html/${article.link}"} {
		if !strings.Contains(content, want) {
			t.Errorf("index missing %q", want)
		}
	}

	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records))
	}
	want := sampleRecord(1, "first")
	if diff := cmp.Diff(want, records[0]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestPersistPreservesGlue(t *testing.T) {
	s, _ := setupTestStore(t)
	before := "// custom header\n"
	after := "\n\nfunction custom() { return articles.length; }\n// trailing ]; comment\n"
	writeIndex(t, s, before+`const articles = [{"id": 1, "title": "Old", "slug": "old"}];`+after)

	if _, err := s.Add(sampleRecord(0, "new")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	content := readIndex(t, s)
	if !strings.HasPrefix(content, before+"const articles = [\n") {
		t.Errorf("prefix changed:\n%s", content)
	}
	if !strings.HasSuffix(content, "];"+after) {
		t.Errorf("glue after the block changed:\n%s", content)
	}
	if strings.Contains(content, "class ArticleManager") {
		t.Errorf("scaffold should not be written over an existing declaration")
	}
}

func TestPersistKeepsDeclarationKeyword(t *testing.T) {
	for _, kw := range []string{"let", "var"} {
		t.Run(kw, func(t *testing.T) {
			s, _ := setupTestStore(t)
			writeIndex(t, s, "  "+kw+" articles = [];\nrender(articles);\n")
			if _, err := s.Add(sampleRecord(0, "x")); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
			content := readIndex(t, s)
			if !strings.HasPrefix(content, "  "+kw+" articles = [") {
				t.Errorf("declaration prefix lost:\n%s", content)
			}
			if !strings.HasSuffix(content, "];\nrender(articles);\n") {
				t.Errorf("trailing code lost:\n%s", content)
			}
		})
	}
}

func TestPersistBracketInsideString(t *testing.T) {
	s, _ := setupTestStore(t)
	writeIndex(t, s, `const articles = [{"id": 1, "title": "a ]; b", "slug": "ab"}];`+"\nafter();\n")
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 || records[0].Title != "a ]; b" {
		t.Fatalf("records = %#v", records)
	}
	if err := s.Persist(records); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if content := readIndex(t, s); !strings.HasSuffix(content, "];\nafter();\n") || strings.Count(content, "after();") != 1 {
		t.Errorf("unexpected content:\n%s", content)
	}
}

func TestPersistRoundTripIsStable(t *testing.T) {
	s, _ := setupTestStore(t)
	for _, slug := range []string{"one", "two", "three"} {
		if _, err := s.Add(sampleRecord(0, slug)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	first := readIndex(t, s)
	for i := 0; i < 2; i++ {
		records, err := s.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if err := s.Persist(records); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
		if got := readIndex(t, s); got != first {
			t.Fatalf("round trip %d changed the index:\n%s", i+1, cmp.Diff(first, got))
		}
	}
}

func TestPersistEscapesNothingHTML(t *testing.T) {
	s, _ := setupTestStore(t)
	rec := sampleRecord(0, "html")
	rec.Title = "A <b>&</b> 矿泉水"
	if _, err := s.Add(rec); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if content := readIndex(t, s); !strings.Contains(content, `"title": "A <b>&</b> 矿泉水"`) {
		t.Errorf("title should be stored verbatim:\n%s", content)
	}
}

func TestPersistUnreadableIndex(t *testing.T) {
	s, _ := setupTestStore(t)
	// A directory in place of the index file cannot be read.
	if err := os.MkdirAll(s.Path(), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(); err == nil {
		t.Error("expected Load error")
	}
	if err := s.Persist(nil); err == nil {
		t.Error("expected Persist error")
	}
}

func TestDataExport(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataExport = filepath.Join("js", "articles.json")
	s := NewIndexStore(cfg, discardLogger())
	if _, err := s.Add(sampleRecord(0, "exported")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	data, err := os.ReadFile(cfg.Resolve(cfg.DataExport))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("[\n  {\n    \"id\": 1,")) {
		t.Errorf("unexpected export:\n%s", data)
	}
	if !strings.Contains(readIndex(t, s), strings.TrimSpace(string(data))) {
		t.Errorf("export should match the embedded data block")
	}
}

func TestNextIDFromDisk(t *testing.T) {
	s, _ := setupTestStore(t)
	writeIndex(t, s, `const articles = [{"id": 1}, {"id": 3}, {"id": 4}];`)
	id, err := s.NextIDFromDisk()
	if err != nil {
		t.Fatalf("NextIDFromDisk failed: %v", err)
	}
	if id != 5 {
		t.Errorf("id = %d, want 5", id)
	}
}

func TestSaveOutputFile(t *testing.T) {
	s, cfg := setupTestStore(t)
	path, err := s.SaveOutputFile("page.html", "<p>hi</p>")
	if err != nil {
		t.Fatalf("SaveOutputFile failed: %v", err)
	}
	if path != filepath.Join(cfg.OutputPath(), "page.html") {
		t.Errorf("path = %q", path)
	}
	if !s.FileExists("page.html") {
		t.Error("FileExists should report the written page")
	}
	if s.FileExists("other.html") {
		t.Error("FileExists should be false for a missing page")
	}

	if _, err := s.SaveOutputFile("page.html", "<p>again</p>"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "<p>again</p>" {
		t.Errorf("content = %q", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Errorf("perm = %o, want 644", perm)
	}

	for _, bad := range []string{"", "../escape.html", "sub/page.html"} {
		if _, err := s.SaveOutputFile(bad, "x"); err == nil {
			t.Errorf("SaveOutputFile(%q) should fail", bad)
		}
	}
}

func TestOutputName(t *testing.T) {
	if got := OutputName(Record{ID: 3, Slug: "hello"}); got != "hello.html" {
		t.Errorf("got %q", got)
	}
	if got := OutputName(Record{ID: 3, Slug: " "}); got != "article-3.html" {
		t.Errorf("got %q", got)
	}
}
