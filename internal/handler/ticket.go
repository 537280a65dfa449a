// Package handler holds the gin handlers of the read-only HTTP API. All
// ticket mutations go through the chat platform; HTTP only exposes lookups
// and statistics.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brentspine/discord-ticketbot/internal/errs"
	"github.com/brentspine/discord-ticketbot/internal/model"
	"github.com/brentspine/discord-ticketbot/internal/store"
)

// TicketReader is the ticket query surface the handler needs.
type TicketReader interface {
	GetTicket(ctx context.Context, id uint64) (*model.Ticket, error)
	ListTickets(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error)
	CountTickets(ctx context.Context) (int64, error)
	CountOpenTickets(ctx context.Context) (int64, error)
	CountWaitingTickets(ctx context.Context) (int64, error)
	TopClosers(ctx context.Context, limit int) ([]store.SupporterCount, error)
	RatingsOfSupporter(ctx context.Context, supporterID string) ([]model.Rating, error)
}

type TicketHandler struct {
	store TicketReader
}

func NewTicketHandler(store TicketReader) *TicketHandler {
	return &TicketHandler{store: store}
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

// List returns a page of tickets, filtered by the query parameters.
func (h *TicketHandler) List(c *gin.Context) {
	filter := map[string]interface{}{}
	if v := c.Query("owner_id"); v != "" {
		filter["owner_id = ?"] = v
	}
	if v := c.Query("supporter_id"); v != "" {
		filter["supporter_id = ?"] = v
	}
	if v := c.Query("category_id"); v != "" {
		filter["category_id = ?"] = v
	}
	if v := c.Query("open"); v != "" {
		open, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "open must be a boolean"})
			return
		}
		filter["is_open = ?"] = open
	}

	limit := intQuery(c, "limit", defaultLimit)
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	items, total, err := h.store.ListTickets(c.Request.Context(), filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list tickets failed"})
		return
	}
	if items == nil {
		items = []model.Ticket{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// Get returns one ticket by id.
func (h *TicketHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}
	t, err := h.store.GetTicket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load ticket failed"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// Stats returns the aggregated support counters.
func (h *TicketHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	total, err := h.store.CountTickets(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	open, err := h.store.CountOpenTickets(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	waiting, err := h.store.CountWaitingTickets(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	closers, err := h.store.TopClosers(ctx, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	if closers == nil {
		closers = []store.SupporterCount{}
	}
	c.JSON(http.StatusOK, gin.H{
		"total":       total,
		"open":        open,
		"waiting":     waiting,
		"top_closers": closers,
	})
}

// SupporterRatings returns the ratings a supporter has received, newest
// first, with the running average.
func (h *TicketHandler) SupporterRatings(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "supporter id required"})
		return
	}
	ratings, err := h.store.RatingsOfSupporter(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load ratings failed"})
		return
	}
	if ratings == nil {
		ratings = []model.Rating{}
	}
	var avg float64
	if len(ratings) > 0 {
		sum := 0
		for _, r := range ratings {
			sum += r.Stars
		}
		avg = float64(sum) / float64(len(ratings))
	}
	c.JSON(http.StatusOK, gin.H{
		"supporter_id": id,
		"count":        len(ratings),
		"average":      avg,
		"items":        ratings,
	})
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
