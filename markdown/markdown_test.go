package markdown

import (
	"strings"
	"testing"
)

func render(t *testing.T, input string) string {
	t.Helper()
	out, err := NewRenderer().Render(input)
	if err != nil {
		t.Fatalf("Render(%q) failed: %v", input, err)
	}
	return out
}

func TestRenderInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"~~gone~~", "<del>gone</del>"},
		{"see https://example.com now", `<a href="https://example.com">https://example.com</a>`},
		{"[link](/x)", `<a href="/x">link</a>`},
		{"`code`", "<code>code</code>"},
	}
	for _, tt := range tests {
		got := render(t, tt.input)
		if !strings.Contains(got, tt.expected) {
			t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderLineBreaks(t *testing.T) {
	got := render(t, "first line\nsecond line")
	if !strings.Contains(got, "first line<br />\nsecond line") {
		t.Errorf("soft break not rendered as <br />: %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	got := render(t, "| A | B |\n|---|---|\n| 1 | 2 |\n")
	for _, want := range []string{"<table>", "<th>A</th>", "<td>2</td>"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q: %q", want, got)
		}
	}
}

func TestRenderHeadingIDs(t *testing.T) {
	got := render(t, "## Getting Started")
	if !strings.Contains(got, `<h2 id="getting-started">Getting Started</h2>`) {
		t.Errorf("heading id missing: %q", got)
	}
}

func TestRenderTOC(t *testing.T) {
	got := render(t, "[TOC]\n\n# Intro\n\n## Details\n\ntext\n")
	if strings.Contains(got, "[TOC]") {
		t.Errorf("marker left in output: %q", got)
	}
	for _, want := range []string{`class="toc"`, `<a href="#intro">Intro</a>`, `<a href="#details">Details</a>`} {
		if !strings.Contains(got, want) {
			t.Errorf("toc output missing %q: %q", want, got)
		}
	}
	if strings.Index(got, `class="toc"`) > strings.Index(got, "<h1") {
		t.Errorf("toc should be rendered where the marker was: %q", got)
	}
}

func TestRenderTOCWithoutHeadings(t *testing.T) {
	got := render(t, "[TOC]\n\njust text\n")
	if strings.Contains(got, "[TOC]") || strings.Contains(got, "toc") {
		t.Errorf("marker without headings should be dropped: %q", got)
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := NewRenderer()
	body := "# T\n\n| a |\n|---|\n| b |\n\n~~x~~ https://example.com\n"
	first, err := r.Render(body)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Render(body)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("render not deterministic:\n%s\n%s", first, second)
	}
}
