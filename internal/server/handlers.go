package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/types"
)

// logRequest is the body of POST /log. Pointers tell a missing field from a zero one.
type logRequest struct {
	Timestamp   *types.WireTime `json:"timestamp"`
	Category    string          `json:"category"`
	Duration    *int64          `json:"duration"`
	WindowTitle string          `json:"window_title"`
	Source      *string         `json:"source"`
}

func (r logRequest) submission() (types.LogSubmission, string) {
	switch {
	case r.Timestamp == nil:
		return types.LogSubmission{}, "timestamp is required"
	case strings.TrimSpace(r.Category) == "":
		return types.LogSubmission{}, "category is required"
	case r.Duration == nil:
		return types.LogSubmission{}, "duration is required"
	case *r.Duration < 0:
		return types.LogSubmission{}, "duration must not be negative"
	}
	sub := types.LogSubmission{
		Timestamp:   float64(*r.Timestamp),
		Category:    r.Category,
		Duration:    *r.Duration,
		WindowTitle: r.WindowTitle,
	}
	if r.Source != nil {
		sub.Source = *r.Source
	}
	return sub, ""
}

// recordResponse is a stored record with its timestamp as a UTC datetime
type recordResponse struct {
	ID          int64   `json:"id"`
	Timestamp   string  `json:"timestamp"`
	Category    string  `json:"category"`
	Duration    int64   `json:"duration"`
	WindowTitle string  `json:"window_title"`
	Source      *string `json:"source"`
}

const wireLayout = "2006-01-02T15:04:05.999999Z07:00"

func toResponse(rec types.RemoteRecord) recordResponse {
	return recordResponse{
		ID:          rec.ID,
		Timestamp:   types.EpochToTime(float64(rec.Timestamp)).UTC().Format(wireLayout),
		Category:    rec.Category,
		Duration:    rec.Duration,
		WindowTitle: rec.WindowTitle,
		Source:      rec.Source,
	}
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	_ = c.Error(err)
	if repoerrors.IsValidation(err) {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	logging.LogError(s.logger, err, op, map[string]interface{}{"request_id": c.GetString(requestIDKey)})
	c.JSON(http.StatusInternalServerError, errorBody("internal error"))
}

func (s *Server) welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the window activity record service"})
}

func (s *Server) health(c *gin.Context) {
	if err := s.dbService.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createLog(c *gin.Context) {
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	sub, problem := req.submission()
	if problem != "" {
		c.JSON(http.StatusBadRequest, errorBody(problem))
		return
	}

	rec, created, err := s.store.Insert(c.Request.Context(), sub)
	if err != nil {
		s.fail(c, "CreateLog", err)
		return
	}
	if created {
		storedRecords.WithLabelValues("created").Inc()
	} else {
		storedRecords.WithLabelValues("duplicate").Inc()
		s.logger.Debug("Duplicate submission", "id", rec.ID, "request_id", c.GetString(requestIDKey))
	}
	c.JSON(http.StatusOK, toResponse(rec))
}

func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

func (s *Server) listLogs(c *gin.Context) {
	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		c.JSON(http.StatusBadRequest, errorBody("skip must be a non-negative integer"))
		return
	}
	limit, ok := queryInt(c, "limit", s.config.DefaultLimit)
	if !ok || limit == 0 {
		c.JSON(http.StatusBadRequest, errorBody("limit must be a positive integer"))
		return
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	records, err := s.store.List(c.Request.Context(), skip, limit)
	if err != nil {
		s.fail(c, "ListLogs", err)
		return
	}
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toResponse(rec))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) days(c *gin.Context) {
	days, err := s.store.Days(c.Request.Context())
	if err != nil {
		s.fail(c, "Days", err)
		return
	}
	c.JSON(http.StatusOK, days)
}

func (s *Server) summary(c *gin.Context) {
	totals, err := s.store.Summary(c.Request.Context(), c.Param("day"))
	if err != nil {
		s.fail(c, "Summary", err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (s *Server) clearData(c *gin.Context) {
	n, err := s.store.Clear(c.Request.Context())
	if err != nil {
		s.fail(c, "ClearData", err)
		return
	}
	s.logger.Warn("Remote records cleared", "deleted", n, "request_id", c.GetString(requestIDKey))
	c.Status(http.StatusNoContent)
}
