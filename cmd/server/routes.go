package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"coinwatch/internal/cache"
	"coinwatch/internal/market"
	"coinwatch/internal/provider"
	"coinwatch/internal/timerange"
)

const maxIDs = 1000

type server struct {
	svc            *market.Service
	log            logrus.FieldLogger
	debounce       time.Duration
	searchLimit    int
	requestTimeout time.Duration
	upgrader       websocket.Upgrader
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.log))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api", withTimeout(s.requestTimeout))
	api.GET("/listings", s.handleListings)
	api.GET("/quotes", s.handleQuotes)
	api.GET("/map", s.handleMap)
	api.GET("/info", s.handleInfo)
	api.GET("/global", s.handleGlobal)
	api.GET("/history", s.handleHistory)
	api.GET("/history/:slug", s.handleHistoryForSlug)
	api.GET("/assets", s.handleAssets)
	api.GET("/assets/:id", s.handleAsset)
	api.GET("/fiat", s.handleFiat)
	api.GET("/convert", s.handleConvert)
	api.GET("/search", s.handleSearch)

	ws := r.Group("/ws")
	ws.GET("/listings", s.handleWatchListings)
	ws.GET("/search", s.handleSearchSession)

	return r
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("request")
	}
}

// withTimeout bounds how long a request waits for an upstream fetch.
func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": s.svc.Stats()})
}

type listingsQuery struct {
	Currency string `form:"currency" binding:"omitempty,alpha,max=5"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"per_page" binding:"omitempty,min=1,max=5000"`
}

func (s *server) handleListings(c *gin.Context) {
	var q listingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	e, err := s.svc.Listings(c.Request.Context(), q.Currency, q.Page, q.PerPage)
	respond(c, e, err)
}

type quotesQuery struct {
	IDs      string `form:"ids" binding:"required"`
	Currency string `form:"currency" binding:"omitempty,alpha,max=5"`
}

func (s *server) handleQuotes(c *gin.Context) {
	var q quotesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	ids, err := parseIDs(q.IDs)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	e, err := s.svc.Quotes(c.Request.Context(), ids, q.Currency)
	respond(c, e, err)
}

func (s *server) handleMap(c *gin.Context) {
	e, err := s.svc.IdentifierMap(c.Request.Context())
	respond(c, e, err)
}

func (s *server) handleInfo(c *gin.Context) {
	ids, err := parseIDs(c.Query("ids"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	e, err := s.svc.Metadata(c.Request.Context(), ids)
	respond(c, e, err)
}

func (s *server) handleGlobal(c *gin.Context) {
	e, err := s.svc.GlobalMetrics(c.Request.Context(), c.Query("currency"))
	respond(c, e, err)
}

type historyQuery struct {
	Asset    string `form:"asset" binding:"required"`
	Interval string `form:"interval" binding:"required,oneof=m1 m5 m15 m30 h1 h2 h6 h12 d1"`
	// Start and End are unix milliseconds.
	Start int64 `form:"start" binding:"omitempty,min=0"`
	End   int64 `form:"end" binding:"omitempty,min=0,gtefield=Start"`
}

func (s *server) handleHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	var start, end time.Time
	if q.Start > 0 {
		start = time.UnixMilli(q.Start).UTC()
	}
	if q.End > 0 {
		end = time.UnixMilli(q.End).UTC()
	}
	e, err := s.svc.History(c.Request.Context(), q.Asset, q.Interval, start, end)
	respondHistory(c, e, err)
}

func (s *server) handleHistoryForSlug(c *gin.Context) {
	raw := c.DefaultQuery("range", timerange.Week.String())
	r, err := timerange.Parse(raw)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	e, err := s.svc.HistoryForSlug(c.Request.Context(), c.Param("slug"), r)
	respondHistory(c, e, err)
}

func respondHistory(c *gin.Context, e cache.Entry[[]provider.HistoryPoint], err error) {
	view := cache.Entry[historyView]{
		Loaded:       e.Loaded,
		FetchedAt:    e.FetchedAt,
		StaleAfter:   e.StaleAfter,
		Refreshing:   e.Refreshing,
		Err:          e.Err,
		RetryPending: e.RetryPending,
	}
	if e.Loaded {
		v, verr := newHistoryView(e.Value)
		if verr != nil {
			v = historyView{Points: e.Value}
		}
		view.Value = v
	}
	respond(c, view, err)
}

type assetsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=2000"`
}

func (s *server) handleAssets(c *gin.Context) {
	var q assetsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	e, err := s.svc.Assets(c.Request.Context(), q.Limit)
	respond(c, e, err)
}

func (s *server) handleAsset(c *gin.Context) {
	e, err := s.svc.Asset(c.Request.Context(), strings.ToLower(c.Param("id")))
	respond(c, e, err)
}

func (s *server) handleFiat(c *gin.Context) {
	e, err := s.svc.FiatMap(c.Request.Context())
	respond(c, e, err)
}

type convertQuery struct {
	Amount   float64 `form:"amount" binding:"required,gt=0"`
	ID       int     `form:"id" binding:"required,min=1"`
	Currency string  `form:"currency" binding:"omitempty,alpha,max=5"`
}

func (s *server) handleConvert(c *gin.Context) {
	var q convertQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	e, err := s.svc.Convert(c.Request.Context(), q.Amount, q.ID, q.Currency)
	respond(c, e, err)
}

func (s *server) handleSearch(c *gin.Context) {
	results, err := s.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil && len(results) == 0 && strings.TrimSpace(c.Query("q")) != "" {
		c.JSON(statusFor(err), envelope{Data: results, Error: newAPIError(err, false)})
		return
	}
	c.JSON(http.StatusOK, envelope{Data: results})
}

// parseIDs reads a comma-separated list of positive coin ids.
func parseIDs(s string) ([]int, error) {
	parts := splitCSV(s)
	if len(parts) > maxIDs {
		return nil, fmt.Errorf("too many ids (max %d)", maxIDs)
	}
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
