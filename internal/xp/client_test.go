package xp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brentspine/discord-ticketbot/internal/model"
)

func TestAward(t *testing.T) {
	var got awardPayload
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tickets/award-xp" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		key = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	stars := 4
	tk := &model.Ticket{ID: 7, OwnerID: "o1", SupporterID: "s1", CategoryID: "general"}
	if err := c.Award(context.Background(), tk, &stars); err != nil {
		t.Fatalf("award: %v", err)
	}
	if key != "secret" {
		t.Fatalf("api key = %q", key)
	}
	if got.TicketID != 7 || got.SupporterID != "s1" || got.Rating == nil || *got.Rating != 4 {
		t.Fatalf("payload = %+v", got)
	}
}

func TestAwardSkippedRating(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode: %v", err)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if err := c.Award(context.Background(), &model.Ticket{ID: 1}, nil); err != nil {
		t.Fatalf("award: %v", err)
	}
	// A skipped rating must still be reported, with an explicit null.
	if string(raw["rating"]) != "null" {
		t.Fatalf("rating = %s, want null", raw["rating"])
	}
}

func TestAwardErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if err := c.Award(context.Background(), &model.Ticket{ID: 1}, nil); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestDisabledClient(t *testing.T) {
	c := NewClient("", "")
	if c.Enabled() {
		t.Fatalf("empty base url should disable the client")
	}
	if err := c.Award(context.Background(), &model.Ticket{ID: 1}, nil); err != nil {
		t.Fatalf("disabled award: %v", err)
	}
	c.AwardAsync(&model.Ticket{ID: 1}, nil)
}
