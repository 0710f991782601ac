package pubgen

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// transliterations maps known source-language tokens to latin. Longer
// tokens come first so they win over their substrings.
var transliterations = strings.NewReplacer(
	"矿泉水", "kuangquanshui",
	"结冰", "jiebing",
	"一下", "yixia",
	"晃", "huang",
	"就", "jiu",
	"的", "de",
	"和", "he",
	"与", "yu",
	"或", "huo",
)

var (
	reSlugStrip  = regexp.MustCompile(`[^\w\s-]`)
	reSlugSpace  = regexp.MustCompile(`\s+`)
	reSlugHyphen = regexp.MustCompile(`-+`)
)

// Slugify converts a title to a URL-safe slug. It never returns an empty
// string: blank titles, or titles with nothing slug-safe left, become
// "article-<epoch millis>".
func Slugify(title string) string {
	return SlugifyAt(title, time.Now())
}

// SlugifyAt is Slugify with an explicit clock for the fallback.
func SlugifyAt(title string, now time.Time) string {
	if strings.TrimSpace(title) == "" {
		return fallbackSlug(now)
	}
	s := transliterations.Replace(strings.ToLower(title))
	s = reSlugStrip.ReplaceAllString(s, "")
	s = reSlugSpace.ReplaceAllString(s, "-")
	s = reSlugHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fallbackSlug(now)
	}
	return s
}

func fallbackSlug(now time.Time) string {
	return "article-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// UniqueSlug returns slug, or slug with the first free numeric suffix
// ("-2", "-3", ...) when taken reports it in use.
func UniqueSlug(slug string, taken func(string) bool) string {
	if !taken(slug) {
		return slug
	}
	for n := 2; ; n++ {
		candidate := slug + "-" + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) == 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return []string{}
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// hasTag reports whether r carries tag, compared after normalizeTag.
func hasTag(r Record, tag string) bool {
	want := normalizeTag(tag)
	for _, t := range r.Tags {
		if normalizeTag(t) == want {
			return true
		}
	}
	return false
}
