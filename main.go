package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/site-pulse/backend/audit"
	"github.com/site-pulse/backend/config"
	"github.com/site-pulse/backend/crawler"
	"github.com/site-pulse/backend/logging"
	"github.com/site-pulse/backend/middleware"
	"github.com/site-pulse/backend/optimize"
	"github.com/site-pulse/backend/scoring"
	"github.com/site-pulse/backend/signals"
	"github.com/site-pulse/backend/stats"
)

type server struct {
	crawler *crawler.Crawler
	locator *signals.Locator
	stats   *stats.Storage
}

func loadEnv() {
	// Try .env.development first (for local development), then regular .env
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}
}

func setupGinMode(mode string) {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func main() {
	loadEnv()

	cfg := config.Load()
	setupGinMode(cfg.GinMode)

	locator, err := cfg.Locator()
	if err != nil {
		log.Fatalf("Failed to load locator tables: %v", err)
	}

	statsStorage, err := stats.NewStorage(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize stats storage: %v", err)
	}

	srv := &server{
		crawler: crawler.New(cfg.Crawl, statsStorage),
		locator: locator,
		stats:   statsStorage,
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	serviceStats := logging.Initialize()

	r := gin.Default()

	r.Use(middleware.ErrorHandler())
	r.Use(rateLimiter.RateLimit())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.Use(middleware.StatsMiddleware(serviceStats))

	// Periodically persist service statistics
	r.Use(func(c *gin.Context) {
		c.Next()
		if serviceStats.GetStatistics()["totalRequests"].(int)%100 == 0 {
			go serviceStats.Save()
		}
	})

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			log.Printf("Health check request received from: %s\n", c.ClientIP())
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		api.POST("/audit", srv.auditSite)
		api.POST("/score", srv.scorePages)
		api.POST("/optimize", srv.optimizeSite)

		api.GET("/statistics", func(c *gin.Context) {
			c.JSON(http.StatusOK, serviceStats.GetStatistics())
		})

		api.GET("/usage", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"current": srv.stats.GetCurrentStats(),
				"months":  srv.stats.GetAllMonths(),
			})
		})
	}

	log.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

type auditRequest struct {
	URL      string `json:"url" binding:"required,url"`
	MaxPages int    `json:"max_pages"`
	Detail   bool   `json:"detail"`
}

// auditSite crawls a site, scores every fetched page, and attaches the
// suggestion-builder output.
func (s *server) auditSite(c *gin.Context) {
	log.Printf("Audit request received from: %s\n", c.ClientIP())

	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid URL provided",
		})
		return
	}
	c.Set("audit_site", req.URL)

	pages, err := s.crawler.Crawl(c.Request.Context(), req.URL, req.MaxPages)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to crawl site: " + err.Error(),
		})
		return
	}

	scores := make([]scoring.PageScore, len(pages))
	for i, p := range pages {
		scores[i] = scoring.ScorePage(p, s.locator)
	}
	site := scoring.AggregateSite(pages, scores)
	if req.Detail {
		site.Pages = scores
	}

	s.stats.TrackAudit(len(pages))

	c.JSON(http.StatusOK, gin.H{
		"id":           uuid.NewString(),
		"url":          req.URL,
		"score":        site,
		"optimization": optimize.OptimizeSite(pages, scores, 0),
	})
}

type scoreRequest struct {
	Pages  []map[string]interface{} `json:"pages" binding:"required"`
	Detail bool                     `json:"detail"`
}

// scorePages scores caller-supplied page data without crawling, for clients
// that run their own fetcher.
func (s *server) scorePages(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid page data provided",
		})
		return
	}

	pages := make([]audit.PageRecord, len(req.Pages))
	for i, raw := range req.Pages {
		pages[i] = audit.Normalize(raw)
	}
	if len(pages) > 0 {
		c.Set("audit_site", pages[0].URL)
	}

	site := scoring.ScoreSite(pages, s.locator, req.Detail)

	s.stats.TrackAudit(len(pages))

	c.JSON(http.StatusOK, site)
}

type optimizeRequest struct {
	URL      string                   `json:"url"`
	MaxPages int                      `json:"max_pages"`
	Pages    []map[string]interface{} `json:"pages"`
}

// optimizeSite returns suggestions and JSON-LD artifacts for a site, either
// crawling it or using caller-supplied page data.
func (s *server) optimizeSite(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.URL == "" && len(req.Pages) == 0) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Provide either a url or a list of pages",
		})
		return
	}

	var pages []audit.PageRecord
	if req.URL != "" {
		crawled, err := s.crawler.Crawl(c.Request.Context(), req.URL, req.MaxPages)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Failed to crawl site: " + err.Error(),
			})
			return
		}
		pages = crawled
	} else {
		pages = make([]audit.PageRecord, len(req.Pages))
		for i, raw := range req.Pages {
			pages[i] = audit.Normalize(raw)
		}
	}

	scores := make([]scoring.PageScore, len(pages))
	for i, p := range pages {
		scores[i] = scoring.ScorePage(p, s.locator)
	}

	c.JSON(http.StatusOK, optimize.OptimizeSite(pages, scores, 0))
}

func init() {
	// DEV_MODE mirrors the statistics endpoint's gating; nothing else
	// reads it here, but surface a hint in logs when it is on.
	if os.Getenv(logging.ENV_DEV_MODE) == "true" {
		log.Println("Running in development mode: full statistics exposed")
	}
}
