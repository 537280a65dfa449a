package config

import (
	"strings"
	"testing"
)

func TestParseList(t *testing.T) {
	got := parseList(" a, b ,,c ")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("parseList = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("parseList = %v, want %v", got, want)
		}
	}
	if parseList("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}

func TestParseMap(t *testing.T) {
	got := parseMap("bug=123, payment=456,broken,=x,y=")
	if len(got) != 2 || got["bug"] != "123" || got["payment"] != "456" {
		t.Fatalf("parseMap = %v", got)
	}
}

func TestParseMultiMap(t *testing.T) {
	got := parseMultiMap("bug=r1|r2,payment=r3")
	if len(got["bug"]) != 2 || got["bug"][0] != "r1" || got["bug"][1] != "r2" {
		t.Fatalf("bug roles = %v", got["bug"])
	}
	if len(got["payment"]) != 1 || got["payment"][0] != "r3" {
		t.Fatalf("payment roles = %v", got["payment"])
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxTicketsPerUser != 3 {
		t.Fatalf("MaxTicketsPerUser = %d, want 3", cfg.MaxTicketsPerUser)
	}
	if cfg.RemindIntervalHours != 24 || cfg.AutoCloseHours != 96 {
		t.Fatalf("escalation defaults = %d/%d", cfg.RemindIntervalHours, cfg.AutoCloseHours)
	}
	if cfg.RatingMaxReminders != 3 || cfg.RatingReminderIntervalHours != 24 {
		t.Fatalf("rating defaults = %d/%d", cfg.RatingMaxReminders, cfg.RatingReminderIntervalHours)
	}
	if cfg.SweepPauseSeconds != 10 {
		t.Fatalf("SweepPauseSeconds = %d", cfg.SweepPauseSeconds)
	}
	if cfg.KafkaTopic != "ticket-events" {
		t.Fatalf("KafkaTopic = %q", cfg.KafkaTopic)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAX_TICKETS_PER_USER", "5")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("CATEGORY_BINS", "bug=111,payment=222")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxTicketsPerUser != 5 || !cfg.DevMode {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.CategoryBins["bug"] != "111" || cfg.CategoryBins["payment"] != "222" {
		t.Fatalf("CategoryBins = %v", cfg.CategoryBins)
	}
}

func TestValidate(t *testing.T) {
	cfg, _ := Load()
	cfg.MaxTicketsPerUser = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("zero quota must fail validation")
	}
	cfg, _ = Load()
	cfg.AutoCloseHours = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("zero auto-close must fail validation")
	}
}

func TestDatabaseURLEscapesPassword(t *testing.T) {
	cfg, _ := Load()
	cfg.DB.Password = "p@ss word"
	url := cfg.DatabaseURL()
	if want := "p%40ss+word"; !strings.Contains(url, want) {
		t.Fatalf("password not escaped: %s", url)
	}
}
