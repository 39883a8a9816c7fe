package dashboard

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

// Handler serves a generated cohort and its projections over HTTP.
// It only ever reads the cohort it was built with.
type Handler struct {
	cohort  *cohort.Cohort
	weights cohort.InviteWeights
}

// NewHandler creates a Handler over c.
func NewHandler(c *cohort.Cohort, weights cohort.InviteWeights) *Handler {
	return &Handler{cohort: c, weights: weights}
}

// RecordsResponse is the body of GET /api/v1/records.
type RecordsResponse struct {
	RunID   string                 `json:"run_id"`
	Total   int                    `json:"total"`
	Count   int                    `json:"count"`
	Records []cohort.StudentRecord `json:"records"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds a gin engine with recovery, request logging and the
// handler's routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	h.Register(r)
	return r
}

// Register attaches the routes to r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.health)
	api := r.Group("/api/v1")
	api.GET("/records", h.listRecords)
	api.GET("/summary", h.summary)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "run_id": h.cohort.RunID.String()})
}

// listRecords returns the filtered records. Optional query parameters:
// major, year (repeatable), limit (first N matches), sample (N random matches).
func (h *Handler) listRecords(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	limit, err := nonNegativeQuery(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	sample, err := nonNegativeQuery(c, "sample")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	records := f.Apply(h.cohort.Records)
	if sample > 0 {
		view := &cohort.Cohort{Seed: h.cohort.Seed, Records: records}
		records = view.Sample(sample)
	}
	total := len(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	c.JSON(http.StatusOK, RecordsResponse{
		RunID:   h.cohort.RunID.String(),
		Total:   total,
		Count:   len(records),
		Records: records,
	})
}

// summary returns every projection for the filter. window sets the rolling
// placement window in months (default DefaultRollingWindow).
func (h *Handler) summary(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	window, err := nonNegativeQuery(c, "window")
	if err != nil || (c.Query("window") != "" && window == 0) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("window must be a positive integer, got %q", c.Query("window"))})
		return
	}
	if window == 0 {
		window = DefaultRollingWindow
	}
	c.JSON(http.StatusOK, SummarizeWindow(h.cohort.Records, f, h.weights, window))
}

func filterFromQuery(c *gin.Context) (Filter, error) {
	f := Filter{Majors: c.QueryArray("major")}
	for _, raw := range c.QueryArray("year") {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("year %q is not an integer", raw)
		}
		f.GraduationYears = append(f.GraduationYears, y)
	}
	return f, nil
}

func nonNegativeQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return n, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("request served")
	}
}
