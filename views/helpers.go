package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/a-h/templ"
)

// TagsHTML renders each tag as <span class="tag">tag</span>, space-joined.
func TagsHTML(tags []string) string {
	spans := make([]string, 0, len(tags))
	for _, t := range tags {
		spans = append(spans, `<span class="tag">`+templ.EscapeString(strings.TrimSpace(t))+`</span>`)
	}
	return strings.Join(spans, " ")
}

// buildURL joins path segments onto a base URL.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	return u.String()
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a page.
func BlogPostingJsonLD(cfg SiteConfig, p Page) string {
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      p.Title,
		"description":   p.Summary,
		"datePublished": p.Date,
	}
	if cfg.URL != "" && p.Link != "" {
		pageURL := buildURL(cfg.URL, p.Link)
		data["url"] = pageURL
		data["mainEntityOfPage"] = map[string]string{
			"@type": "WebPage",
			"@id":   pageURL,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if p.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  p.Author,
		}
	}
	if len(p.Tags) > 0 {
		data["keywords"] = strings.Join(p.Tags, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
