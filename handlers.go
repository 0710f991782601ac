package pubgen

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pubgen/views"
)

func (s *Server) handleArticles(c echo.Context) error {
	records, err := s.Cache.ListRecords(c.QueryParam("tag"))
	if err != nil {
		return err
	}
	entries := make([]indexEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, toEntry(r))
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleArticle(c echo.Context) error {
	rec, err := s.Cache.GetRecord(c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "article not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntry(rec))
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.Cache.Stats()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleSitemap(c echo.Context) error {
	records, err := s.Cache.ListRecords("")
	if err != nil {
		return err
	}
	return s.renderSitemap(c, records)
}

func (s *Server) handleFeed(c echo.Context) error {
	records, err := s.Cache.ListRecords("")
	if err != nil {
		return err
	}
	return s.renderRSS(c, records)
}

// articleURL is the absolute URL of a record's page.
func (s *Server) articleURL(r Record) string {
	return BuildURL(s.Config.SiteURL, s.Config.LinkPrefix()+r.Link)
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code >= 500 {
		s.logger.Error("server error", slog.String("uri", c.Request().RequestURI), slog.Any("error", err))
	}
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		s.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	if code == http.StatusNotFound {
		_ = RenderStatus(c, code, views.NotFound(s.site))
		return
	}
	s.Echo.DefaultHTTPErrorHandler(err, c)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}
