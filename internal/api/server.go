package api

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/david/artify/internal/config"
	"github.com/david/artify/internal/export"
	"github.com/david/artify/internal/ingest"
	"github.com/david/artify/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeICS  = "text/calendar; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Server struct {
	Pipeline *ingest.Pipeline
	Echo     *echo.Echo

	adminSecret    string
	adminSecretErr error
}

func NewServer(cfg *config.Config, pipeline *ingest.Pipeline) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
		ExposeHeaders: []string{echo.HeaderContentDisposition, "X-Run-ID"},
	}))

	s := &Server{
		Pipeline: pipeline,
		Echo:     e,
	}
	s.adminSecret, s.adminSecretErr = resolveAdminSecret(cfg.AdminSecret)

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.GET("/sources", s.handleGetSources)
	api.GET("/opportunities", s.handleSearch)
	api.GET("/opportunities/export.csv", s.handleExportCSV)
	api.GET("/opportunities/export.ics", s.handleExportICS)
	api.GET("/opportunities/export.xlsx", s.handleExportXLSX)
	api.GET("/opportunities/assemble", s.handleAssemble)

	admin := api.Group("/admin")
	admin.Use(s.adminMiddleware)
	admin.POST("/cache/purge", s.handlePurgeCache)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type sourceView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Group       string `json:"group,omitempty"`
	URL         string `json:"url"`
	Strategy    string `json:"strategy"`
	Enabled     bool   `json:"enabled"`
	FollowLinks bool   `json:"follow_links"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleGetSources(c echo.Context) error {
	sources := make([]sourceView, 0, len(s.Pipeline.Registry.Sources))
	for _, src := range s.Pipeline.Registry.Sources {
		sources = append(sources, sourceView{
			ID:          src.ID,
			Name:        src.Name,
			Group:       src.Group,
			URL:         src.URL,
			Strategy:    src.Strategy,
			Enabled:     src.Enabled,
			FollowLinks: src.FollowLinks,
			Description: src.Description,
		})
	}
	return c.JSON(http.StatusOK, sources)
}

func (s *Server) handleSearch(c echo.Context) error {
	req, err := parseSearchRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	result := s.Pipeline.Search(c.Request().Context(), req)
	result.Opportunities = nonNilOpportunities(result.Opportunities)
	if result.Unavailable == nil {
		result.Unavailable = []string{}
	}
	c.Response().Header().Set("X-Run-ID", result.RunID)
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleExportCSV(c echo.Context) error {
	return s.export(c, "csv", mimeCSV, func(w io.Writer, res ingest.SearchResult) error {
		return export.WriteCSV(w, res.Opportunities)
	})
}

func (s *Server) handleExportICS(c echo.Context) error {
	return s.export(c, "ics", mimeICS, func(w io.Writer, res ingest.SearchResult) error {
		return export.WriteICS(w, res.Opportunities, time.Now())
	})
}

func (s *Server) handleExportXLSX(c echo.Context) error {
	return s.export(c, "xlsx", mimeXLSX, func(w io.Writer, res ingest.SearchResult) error {
		return export.WriteXLSX(w, res.Opportunities)
	})
}

// export runs a search with the request's filters and serves the filtered
// records as a download. The file is buffered so a write failure still yields a 500.
func (s *Server) export(c echo.Context, ext, contentType string, write func(io.Writer, ingest.SearchResult) error) error {
	req, err := parseSearchRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	result := s.Pipeline.Search(c.Request().Context(), req)

	var buf bytes.Buffer
	if err := write(&buf, result); err != nil {
		c.Logger().Errorf("Failed to export %s: %v", ext, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	h := c.Response().Header()
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename(ext)))
	h.Set("X-Run-ID", result.RunID)
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

// handleAssemble fetches one public page and returns the record built from it.
func (s *Server) handleAssemble(c echo.Context) error {
	urlStr := c.QueryParam("url")
	if urlStr == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url param required"})
	}
	if status, msg := checkTargetURL(urlStr); status != http.StatusOK {
		return c.JSON(status, map[string]string{"error": msg})
	}

	opp, err := s.Pipeline.AssembleURL(c.Request().Context(), urlStr)
	if err != nil {
		c.Logger().Warnf("Failed to assemble %s: %v", urlStr, err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Unable to fetch URL"})
	}
	return c.JSON(http.StatusOK, opp)
}

func (s *Server) handlePurgeCache(c echo.Context) error {
	cache, ok := s.Pipeline.Fetcher.(*ingest.CachingFetcher)
	if !ok {
		return c.JSON(http.StatusOK, map[string]any{"purged": 0, "cache": "disabled"})
	}
	n := cache.Clear()
	log.Printf("[admin] cleared %d cached responses", n)
	return c.JSON(http.StatusOK, map[string]any{"purged": n, "cache": "enabled"})
}

// checkTargetURL rejects non-web schemes and hosts that obviously point inside
// the network. The fetcher's dialer still guards against names resolving there.
func checkTargetURL(raw string) (int, string) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return http.StatusBadRequest, "Invalid URL scheme"
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return http.StatusBadRequest, "URL host is required"
	}
	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".localhost") {
		return http.StatusForbidden, "Internal network access forbidden"
	}
	if ip := net.ParseIP(host); ip != nil && ingest.IsPrivateIP(ip) {
		return http.StatusForbidden, "Internal network access forbidden"
	}
	return http.StatusOK, ""
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.adminSecretErr != nil || s.adminSecret == "" {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		// X-Admin-Secret header or Bearer token
		supplied := c.Request().Header.Get("X-Admin-Secret")
		if supplied == "" {
			authHeader := c.Request().Header.Get("Authorization")
			if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
				supplied = authHeader[7:]
			}
		}
		if supplied != "" && subtle.ConstantTimeCompare([]byte(supplied), []byte(s.adminSecret)) == 1 {
			return next(c)
		}
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

// resolveAdminSecret returns the configured secret or a random one that lives as
// long as the process.
func resolveAdminSecret(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
	}
	log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// nonNilOpportunities keeps the JSON field an array when nothing matched.
func nonNilOpportunities(opps []models.Opportunity) []models.Opportunity {
	if opps == nil {
		return []models.Opportunity{}
	}
	return opps
}
