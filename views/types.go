package views

// SiteConfig holds the site-wide values a page needs.
type SiteConfig struct {
	Name string
	URL  string
}

// Page is everything the article page shows. Content is trusted HTML from
// the markdown renderer; every other field is escaped on output.
type Page struct {
	Title       string
	Summary     string
	Content     string
	Author      string
	Date        string // machine form, 2006-01-02
	DateDisplay string
	Tags        []string
	Link        string // path of the page below the site root, e.g. html/post.html
}
