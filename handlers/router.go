package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"bestai/config"
	"bestai/sentry"
)

type RouterOptions struct {
	config.Options
	// Sentry adds the per-request hub middleware.
	Sentry bool
}

// NewRouter builds the gin engine: middleware, the /api group and the static
// front end for everything else.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	if opts.Sentry {
		router.Use(sentry.GetSentryGin())
	}
	if len(opts.CORSAllowOrigins) > 0 {
		router.Use(CORS(opts.CORSAllowOrigins))
	}

	api := router.Group("/api")
	if opts.RateLimitEnabled() {
		api.Use(RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
	}
	h.Register(api)

	router.NoRoute(staticFiles(opts.StaticDir))
	return router
}

// staticFiles serves files under dir, with / mapped to index.html. Unknown
// API paths and missing files get a JSON 404.
func staticFiles(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if dir == "" || (method != http.MethodGet && method != http.MethodHead) ||
			strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		name := path.Clean("/" + c.Request.URL.Path)
		if name == "/" {
			name = "/index.html"
		}
		file := filepath.Join(dir, filepath.FromSlash(name))
		if info, err := os.Stat(file); err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(file)
	}
}
