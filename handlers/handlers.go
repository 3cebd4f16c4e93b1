package handlers

// handlers expose the archive over JSON. Each handler reads its query
// parameters, calls the query service or search ranker once and writes the
// result, or maps the error to a status code.

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"bestai/archive"
	"bestai/models"
	"bestai/sentryhelper"
)

// Pinger is the part of the store the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Queries *archive.QueryService
	Search  *archive.SearchRanker
	Store   Pinger
}

func NewHandler(queries *archive.QueryService, search *archive.SearchRanker, store Pinger) *Handler {
	return &Handler{
		Queries: queries,
		Search:  search,
		Store:   store,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/years", h.GetYears)
	r.GET("/authors", h.GetAuthors)
	r.GET("/playlists", h.GetPlaylists)
	r.GET("/playlists/:year", h.GetPlaylistsByYear)
	r.GET("/playlists-by-author", h.GetPlaylistsByAuthor)
	r.GET("/search", h.SearchTracks)
	r.GET("/autocomplete", h.Autocomplete)
	r.GET("/health", h.Health)
}

func (h *Handler) GetYears(c *gin.Context) {
	years, err := h.Queries.ListDistinctYears(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch years")
		return
	}
	c.JSON(http.StatusOK, years)
}

func (h *Handler) GetAuthors(c *gin.Context) {
	authors, err := h.Queries.ListDistinctAuthors(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch authors")
		return
	}
	c.JSON(http.StatusOK, authors)
}

// GetPlaylists accepts year, author or both. Values go to the store as sent,
// so a padded or malformed value simply matches nothing.
func (h *Handler) GetPlaylists(c *gin.Context) {
	filter := models.Filter{
		Year:   c.Query("year"),
		Author: c.Query("author"),
	}
	if filter.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Year or author is required"})
		return
	}
	h.listPlaylists(c, filter)
}

// GetPlaylistsByYear serves the older /api/playlists/:year form.
func (h *Handler) GetPlaylistsByYear(c *gin.Context) {
	year := c.Param("year")
	if year == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Year is required"})
		return
	}
	h.listPlaylists(c, models.Filter{Year: year})
}

func (h *Handler) GetPlaylistsByAuthor(c *gin.Context) {
	author := c.Query("author")
	if author == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Author is required"})
		return
	}
	h.listPlaylists(c, models.Filter{Author: author})
}

func (h *Handler) listPlaylists(c *gin.Context, filter models.Filter) {
	sentryhelper.AddBreadcrumb(c.Request.Context(), "query", "list playlists", map[string]interface{}{
		"year":   filter.Year,
		"author": filter.Author,
	})

	playlists, err := h.Queries.ListPlaylists(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to fetch playlists")
		return
	}
	c.JSON(http.StatusOK, playlists)
}

func (h *Handler) SearchTracks(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query required"})
		return
	}
	sentryhelper.AddBreadcrumb(c.Request.Context(), "search", q, map[string]interface{}{
		"mode": string(h.Search.Mode()),
	})

	tracks, err := h.Search.RankedSearch(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "Search failed")
		return
	}
	c.JSON(http.StatusOK, tracks)
}

func (h *Handler) Autocomplete(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query required"})
		return
	}

	groups, err := h.Search.Autocomplete(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "Autocomplete failed")
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Health pings the store with a short deadline.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		log.WithError(err).Warn("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
