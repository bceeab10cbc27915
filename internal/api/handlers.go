package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"circ-supply/internal/worker/dao"
	"circ-supply/internal/worker/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

const defaultSummaryLimit = 30

type historyQuery struct {
	Start string `schema:"start"`
	End   string `schema:"end"`
	Limit *int   `schema:"limit"`
}

type summaryQuery struct {
	Limit *int `schema:"limit"`
}

type Handler struct {
	snapshots dao.SnapshotDAO
	decimals  int
	decoder   *schema.Decoder
	tl        *zap.Logger
}

func NewHandler(snapshots dao.SnapshotDAO, decimals int, tl *zap.Logger) *Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{
		snapshots: snapshots,
		decimals:  decimals,
		decoder:   decoder,
		tl:        tl,
	}
}

// Latest GET /api/latest
func (h *Handler) Latest(c *gin.Context) {
	snap, err := h.snapshots.Latest(c.Request.Context())
	if errors.Is(err, dao.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No data"})
		return
	}
	if err != nil {
		h.databaseError(c, err)
		return
	}
	view, err := newSnapshotView(snap, h.decimals)
	if err != nil {
		h.databaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// History GET /api/history?start&end | ?limit
func (h *Handler) History(c *gin.Context) {
	var q historyQuery
	if err := h.decoder.Decode(&q, c.Request.URL.Query()); err != nil {
		badRequest(c, queryError(err))
		return
	}

	var (
		rows []*model.SupplySnapshot
		err  error
	)
	ctx := c.Request.Context()
	switch {
	case q.Start != "" || q.End != "":
		if q.Start == "" || q.End == "" {
			badRequest(c, "Both start and end required")
			return
		}
		start, perr := parseTime(q.Start)
		if perr != nil {
			badRequest(c, "Invalid start")
			return
		}
		end, perr := parseTime(q.End)
		if perr != nil {
			badRequest(c, "Invalid end")
			return
		}
		rows, err = h.snapshots.Range(ctx, start, end)
	case q.Limit != nil:
		if *q.Limit <= 0 {
			badRequest(c, "Invalid limit")
			return
		}
		rows, err = h.snapshots.Recent(ctx, *q.Limit)
	default:
		rows, err = h.snapshots.All(ctx)
	}
	if err != nil {
		h.databaseError(c, err)
		return
	}

	resp := historyResponse{Count: len(rows), Data: make([]snapshotView, 0, len(rows))}
	for _, row := range rows {
		view, verr := newSnapshotView(row, h.decimals)
		if verr != nil {
			h.databaseError(c, verr)
			return
		}
		resp.Data = append(resp.Data, view)
	}
	c.JSON(http.StatusOK, resp)
}

// Summary GET /api/summary?limit=30
func (h *Handler) Summary(c *gin.Context) {
	var q summaryQuery
	if err := h.decoder.Decode(&q, c.Request.URL.Query()); err != nil {
		badRequest(c, queryError(err))
		return
	}
	limit := defaultSummaryLimit
	if q.Limit != nil {
		limit = *q.Limit
	}
	if limit <= 0 {
		badRequest(c, "Invalid limit")
		return
	}

	rows, err := h.snapshots.Recent(c.Request.Context(), limit)
	if err != nil {
		h.databaseError(c, err)
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusOK, historyResponse{Count: 0, Data: []snapshotView{}})
		return
	}

	resp, err := summarize(rows, h.decimals)
	if err != nil {
		h.databaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// databaseError 不向客户端暴露内部错误
func (h *Handler) databaseError(c *gin.Context, err error) {
	_ = c.Error(err)
	h.tl.Error("query snapshots failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func queryError(err error) string {
	var multi schema.MultiError
	if errors.As(err, &multi) {
		if _, ok := multi["limit"]; ok {
			return "Invalid limit"
		}
	}
	return "Invalid query parameters"
}

// parseTime accepts RFC 3339 timestamps, plain dates and unix seconds.
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized time format")
}
