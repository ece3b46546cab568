// Package api serves the unified article table over HTTP.
package api

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/logger"
)

const (
	defaultLimit        = 50
	maxLimit            = 1000
	defaultKeywordLimit = 20
)

// TableLoader returns the unified table.
type TableLoader interface {
	Load(ctx context.Context) ([]newsdesk.Record, error)
}

// Counter returns the number of documents in the live store.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Server is the read API.
type Server struct {
	table   TableLoader
	counter Counter
	log     *logger.Logger
}

// NewServer creates a server over table and counter.
func NewServer(table TableLoader, counter Counter, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{table: table, counter: counter, log: log}
}

// SetupRouter configures the gin router with all routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.HandleHealth)

	api := router.Group("/api/v1")
	api.GET("/news", s.HandleListNews)
	api.GET("/news/count", s.HandleCount)
	api.GET("/news/:id", s.HandleGetNews)
	api.GET("/keywords", s.HandleKeywords)

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// ListNewsResponse is the body of GET /api/v1/news.
type ListNewsResponse struct {
	Items  []newsdesk.Record `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// CountResponse is the body of GET /api/v1/news/count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// KeywordCount is one entry of GET /api/v1/keywords.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// KeywordsResponse is the body of GET /api/v1/keywords.
type KeywordsResponse struct {
	Keywords []KeywordCount `json:"keywords"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// HandleHealth handles GET /health.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleListNews handles GET /api/v1/news. Records are returned newest
// first.
func (s *Server) HandleListNews(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	limit, err := intParam(c, "limit", defaultLimit, 1)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}
	limit = min(limit, maxLimit)

	offset, err := intParam(c, "offset", 0, 0)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid_parameter", "Invalid offset parameter")
		return
	}

	table, err := s.table.Load(c.Request.Context())
	if err != nil {
		s.log.Error("failed to load table", "error", err)
		errorResponse(c, http.StatusInternalServerError, "internal_error", "Failed to load news: "+err.Error())
		return
	}

	items := filter.apply(table)
	slices.SortStableFunc(items, func(a, b newsdesk.Record) int {
		return strings.Compare(b.DateStr, a.DateStr)
	})

	c.JSON(http.StatusOK, ListNewsResponse{
		Items:  paginate(items, offset, limit),
		Total:  len(items),
		Limit:  limit,
		Offset: offset,
	})
}

// HandleGetNews handles GET /api/v1/news/:id where id is a record identity.
func (s *Server) HandleGetNews(c *gin.Context) {
	id := strings.ToLower(c.Param("id"))

	table, err := s.table.Load(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "internal_error", "Failed to load news: "+err.Error())
		return
	}

	for _, r := range table {
		if r.Identity() == id {
			c.JSON(http.StatusOK, r)
			return
		}
	}
	errorResponse(c, http.StatusNotFound, "not_found", "News item "+id+" not found")
}

// HandleCount handles GET /api/v1/news/count.
func (s *Server) HandleCount(c *gin.Context) {
	n, err := s.counter.Count(c.Request.Context())
	if err != nil {
		s.log.Error("failed to count live store", "error", err)
		errorResponse(c, http.StatusBadGateway, "store_unavailable", "Failed to count news: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: n})
}

// HandleKeywords handles GET /api/v1/keywords. Terms are ranked by the
// number of records carrying them, ties broken alphabetically.
func (s *Server) HandleKeywords(c *gin.Context) {
	limit, err := intParam(c, "limit", defaultKeywordLimit, 1)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}

	table, err := s.table.Load(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "internal_error", "Failed to load news: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, KeywordsResponse{Keywords: CountKeywords(table, limit)})
}

// CountKeywords returns the limit most frequent keywords across records.
func CountKeywords(records []newsdesk.Record, limit int) []KeywordCount {
	counts := make(map[string]int)
	for _, r := range records {
		for _, term := range r.Keywords {
			if term = strings.TrimSpace(term); term != "" {
				counts[term]++
			}
		}
	}

	ranked := make([]KeywordCount, 0, len(counts))
	for term, n := range counts {
		ranked = append(ranked, KeywordCount{Keyword: term, Count: n})
	}
	slices.SortFunc(ranked, func(a, b KeywordCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Keyword, b.Keyword)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func intParam(c *gin.Context, name string, fallback, minimum int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < minimum {
		return 0, strconv.ErrRange
	}
	return n, nil
}

func paginate(items []newsdesk.Record, offset, limit int) []newsdesk.Record {
	if offset >= len(items) {
		return []newsdesk.Record{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
