package pubgen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/pubgen/markdown"
	"github.com/eringen/pubgen/views"
)

// Pipeline turns source documents into pages and index entries, one
// document at a time.
type Pipeline struct {
	cfg       Config
	extractor *markdown.Extractor
	renderer  *markdown.Renderer
	store     *IndexStore
	page      func(views.Page) templ.Component
	metrics   *Metrics
	logger    *slog.Logger
}

// NewPipeline wires the extractor, renderer, page template and index store
// for cfg. A configured page template is read and validated here.
func NewPipeline(cfg Config, logger *slog.Logger) (*Pipeline, error) {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	site := views.SiteConfig{Name: cfg.SiteName, URL: cfg.SiteURL}
	page := func(p views.Page) templ.Component { return views.Article(site, p) }
	if cfg.PageTemplate != "" {
		text, err := os.ReadFile(cfg.Resolve(cfg.PageTemplate))
		if err != nil {
			return nil, fmt.Errorf("read page template: %w", err)
		}
		tmpl, err := views.ParseTemplate(string(text))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.PageTemplate, err)
		}
		page = tmpl.Component
	}

	return &Pipeline{
		cfg: cfg,
		extractor: &markdown.Extractor{
			Author:             cfg.Author,
			SummaryPlaceholder: cfg.SummaryPlaceholder,
			DateDisplayLayout:  cfg.DateDisplayLayout,
			Now:                cfg.Now,
			Logger:             logger,
		},
		renderer: markdown.NewRenderer(),
		store:    NewIndexStore(cfg, logger),
		page:     page,
		logger:   logger,
	}, nil
}

// Store returns the pipeline's index store.
func (p *Pipeline) Store() *IndexStore { return p.store }

// SetMetrics makes the pipeline record document outcomes and persist
// timings in m.
func (p *Pipeline) SetMetrics(m *Metrics) { p.metrics = m }

// Result is the outcome for one source document.
type Result struct {
	Source string
	Output string // path of the written page
	Record Record
	Err    error
}

// OK reports whether the document was published.
func (r Result) OK() bool { return r.Err == nil }

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("failed %s: %v", r.Source, r.Err)
	}
	return fmt.Sprintf("ok %s -> %s", r.Source, filepath.Base(r.Output))
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Succeeded int
	Failed    int
	Aborted   bool // ctx was cancelled before every document was processed
}

func (s Summary) String() string {
	out := fmt.Sprintf("%d succeeded, %d failed", s.Succeeded, s.Failed)
	if s.Aborted {
		out += " (aborted)"
	}
	return out
}

// Run processes sources in order, calling report after each one. A failing
// document never stops the batch. Cancelling ctx stops before the next
// document; everything already persisted stays.
func (p *Pipeline) Run(ctx context.Context, sources []string, report func(Result)) Summary {
	var sum Summary
	batch := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		if ctx.Err() != nil {
			sum.Aborted = true
			p.logger.Warn("batch aborted", slog.Int("remaining", len(sources)-sum.Succeeded-sum.Failed))
			break
		}
		res := p.ProcessFile(src, batch)
		p.metrics.observeDocument(res.OK())
		if res.OK() {
			sum.Succeeded++
		} else {
			sum.Failed++
			p.logger.Debug("document failed", slog.String("source", src), slog.Any("error", res.Err))
		}
		if report != nil {
			report(res)
		}
	}
	if sum.Succeeded > 0 && p.cfg.CatalogPath != "" {
		if err := p.syncCatalog(); err != nil {
			p.logger.Warn("catalog sync failed", slog.Any("error", err))
		}
	}
	return sum
}

// ProcessFile reads one source file and publishes it. batch holds the
// slugs produced earlier in the same run and is updated on success.
func (p *Pipeline) ProcessFile(path string, batch map[string]struct{}) Result {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{Source: path, Err: fmt.Errorf("read: %w", err)}
	}
	return p.Process(string(raw), path, batch)
}

// Process publishes one document. The page is written before the index is
// touched, so a failed page write never leaves an index entry behind.
func (p *Pipeline) Process(raw, filename string, batch map[string]struct{}) Result {
	res := Result{Source: filename}

	rec, err := p.Build(raw, filename)
	if err != nil {
		res.Err = err
		return res
	}

	existing, err := p.store.Load()
	if err != nil {
		res.Err = err
		return res
	}
	indexed := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		indexed[r.Slug] = struct{}{}
	}
	rec.SetSlug(UniqueSlug(rec.Slug, func(s string) bool {
		_, inIndex := indexed[s]
		_, inBatch := batch[s]
		return inIndex || inBatch
	}))

	var page strings.Builder
	if err := p.page(p.pageFor(rec)).Render(context.Background(), &page); err != nil {
		res.Err = fmt.Errorf("%w: page: %w", ErrRender, err)
		return res
	}
	out, err := p.store.SaveOutputFile(OutputName(rec), page.String())
	if err != nil {
		res.Err = err
		return res
	}
	res.Output = out

	merged := Merge(existing, rec)
	start := time.Now()
	if err := p.store.Persist(merged); err != nil {
		res.Err = err
		return res
	}
	p.metrics.observePersist(start, len(merged))
	if batch != nil {
		batch[rec.Slug] = struct{}{}
	}
	res.Record = merged[0]
	p.logger.Info("published", slog.String("source", filename), slog.String("slug", rec.Slug), slog.Int("id", res.Record.ID))
	return res
}

// Build extracts, slugifies and renders a document into a Record that is
// not yet indexed. Invalid records are rejected with ErrInvalidRecord.
func (p *Pipeline) Build(raw, filename string) (Record, error) {
	meta, body := p.extractor.Extract(raw, filename)
	content, err := p.renderer.Render(body)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	rec := Record{
		Title:       meta.Title,
		Summary:     meta.Summary,
		Date:        meta.Date,
		DateDisplay: meta.DateDisplay,
		Tags:        meta.Tags,
		Author:      meta.Author,
		Content:     content,
	}
	rec.SetSlug(SlugifyAt(meta.Title, p.cfg.Now()))
	if !rec.Valid() {
		return Record{}, ErrInvalidRecord
	}
	return rec, nil
}

func (p *Pipeline) pageFor(r Record) views.Page {
	return views.Page{
		Title:       r.Title,
		Summary:     r.Summary,
		Content:     r.Content,
		Author:      r.Author,
		Date:        r.Date.Format(markdown.DateLayout),
		DateDisplay: r.DateDisplay,
		Tags:        r.Tags,
		Link:        p.cfg.LinkPrefix() + OutputName(r),
	}
}

func (p *Pipeline) syncCatalog() error {
	records, err := p.store.Load()
	if err != nil {
		return err
	}
	cat, err := NewCatalog(p.cfg.Resolve(p.cfg.CatalogPath))
	if err != nil {
		return err
	}
	defer cat.Close()
	return cat.Sync(records)
}
