package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/brentspine/discord-ticketbot/internal/errs"
	"github.com/brentspine/discord-ticketbot/internal/model"
	"github.com/brentspine/discord-ticketbot/internal/store"
)

type fakeReader struct {
	tickets    map[uint64]model.Ticket
	ratings    []model.Rating
	lastFilter map[string]interface{}
	lastLimit  int
	lastOffset int
}

func (f *fakeReader) GetTicket(_ context.Context, id uint64) (*model.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, errs.ErrTicketNotFound
	}
	return &t, nil
}

func (f *fakeReader) ListTickets(_ context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error) {
	f.lastFilter = filter
	f.lastLimit = limit
	f.lastOffset = offset
	var out []model.Ticket
	for _, t := range f.tickets {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeReader) CountTickets(_ context.Context) (int64, error) {
	return int64(len(f.tickets)), nil
}

func (f *fakeReader) CountOpenTickets(_ context.Context) (int64, error) {
	var n int64
	for _, t := range f.tickets {
		if t.IsOpen {
			n++
		}
	}
	return n, nil
}

func (f *fakeReader) CountWaitingTickets(_ context.Context) (int64, error) { return 0, nil }

func (f *fakeReader) TopClosers(_ context.Context, _ int) ([]store.SupporterCount, error) {
	return []store.SupporterCount{{SupporterID: "sup-1", Count: 2}}, nil
}

func (f *fakeReader) RatingsOfSupporter(_ context.Context, supporterID string) ([]model.Rating, error) {
	var out []model.Rating
	for _, r := range f.ratings {
		if r.SupporterID == supporterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestRouter(f *fakeReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTicketHandler(f)
	r := gin.New()
	r.GET("/api/v1/tickets", h.List)
	r.GET("/api/v1/tickets/:id", h.Get)
	r.GET("/api/v1/stats", h.Stats)
	r.GET("/api/v1/supporters/:id/ratings", h.SupporterRatings)
	return r
}

func TestGetTicket(t *testing.T) {
	f := &fakeReader{tickets: map[uint64]model.Ticket{
		7: {ID: 7, OwnerID: "o1", CategoryID: "general", IsOpen: true},
	}}
	r := newTestRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tickets/7", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got model.Ticket
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 7 || got.OwnerID != "o1" {
		t.Fatalf("ticket = %+v", got)
	}
}

func TestGetTicketNotFound(t *testing.T) {
	r := newTestRouter(&fakeReader{tickets: map[uint64]model.Ticket{}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tickets/999", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetTicketBadID(t *testing.T) {
	r := newTestRouter(&fakeReader{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tickets/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListFilters(t *testing.T) {
	f := &fakeReader{tickets: map[uint64]model.Ticket{}}
	r := newTestRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/v1/tickets?owner_id=o1&open=true&limit=10&offset=5", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if f.lastFilter["owner_id = ?"] != "o1" {
		t.Fatalf("owner filter missing: %v", f.lastFilter)
	}
	if f.lastFilter["is_open = ?"] != true {
		t.Fatalf("open filter missing: %v", f.lastFilter)
	}
	if f.lastLimit != 10 || f.lastOffset != 5 {
		t.Fatalf("paging = %d/%d", f.lastLimit, f.lastOffset)
	}
}

func TestListBadOpenParam(t *testing.T) {
	r := newTestRouter(&fakeReader{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tickets?open=banana", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListClampsLimit(t *testing.T) {
	f := &fakeReader{tickets: map[uint64]model.Ticket{}}
	r := newTestRouter(f)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tickets?limit=9999", nil))
	if f.lastLimit != defaultLimit {
		t.Fatalf("limit = %d, want clamp to %d", f.lastLimit, defaultLimit)
	}
}

func TestStats(t *testing.T) {
	f := &fakeReader{tickets: map[uint64]model.Ticket{
		1: {ID: 1, IsOpen: true},
		2: {ID: 2},
	}}
	r := newTestRouter(f)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got struct {
		Total      int64                  `json:"total"`
		Open       int64                  `json:"open"`
		TopClosers []store.SupporterCount `json:"top_closers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 2 || got.Open != 1 || len(got.TopClosers) != 1 {
		t.Fatalf("stats = %+v", got)
	}
}

func TestSupporterRatings(t *testing.T) {
	f := &fakeReader{ratings: []model.Rating{
		{ID: 1, TicketID: 10, SupporterID: "sup-1", Stars: 5},
		{ID: 2, TicketID: 11, SupporterID: "sup-1", Stars: 4},
		{ID: 3, TicketID: 12, SupporterID: "sup-2", Stars: 1},
	}}
	r := newTestRouter(f)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/supporters/sup-1/ratings", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got struct {
		SupporterID string         `json:"supporter_id"`
		Count       int            `json:"count"`
		Average     float64        `json:"average"`
		Items       []model.Rating `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SupporterID != "sup-1" || got.Count != 2 || got.Average != 4.5 {
		t.Fatalf("ratings = %+v", got)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}
}

func TestSupporterRatingsEmpty(t *testing.T) {
	r := newTestRouter(&fakeReader{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/supporters/nobody/ratings", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got struct {
		Count   int            `json:"count"`
		Average float64        `json:"average"`
		Items   []model.Rating `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 0 || got.Average != 0 || got.Items == nil {
		t.Fatalf("empty ratings = %+v", got)
	}
}
