package normalizer_test

import (
	"math"
	"testing"
	"time"

	"github.com/radieske/ev-scanner-poc/internal/ev-processor/normalizer"
	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

const maxDecimalOdds = 10.0

func line(v float64) *float64 { return &v }

func TestBuildSelectionKey(t *testing.T) {
	tests := []struct {
		name      string
		fixtureID string
		market    string
		selection string
		line      *float64
		playerID  string
		want      string
	}{
		{"base fields only", "F1", "1x2", "home", nil, "", "F1||1x2||home"},
		{"with line", "F1", "total_goals", "over", line(2.5), "", "F1||total_goals||over||2.5"},
		{"with player", "F1", "player_shots", "over", line(1.5), "P9", "F1||player_shots||over||1.5||P9"},
		{"player without line", "F1", "anytime_scorer", "yes", nil, "P9", "F1||anytime_scorer||yes||P9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizer.BuildSelectionKey(tt.fixtureID, tt.market, tt.selection, tt.line, tt.playerID)
			if got != tt.want {
				t.Errorf("BuildSelectionKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildSelectionKeyStable(t *testing.T) {
	a := normalizer.BuildSelectionKey("F1", "1x2", "home", nil, "")
	b := normalizer.BuildSelectionKey("F1", "1x2", "home", nil, "")
	if a != b {
		t.Errorf("same bet produced different keys: %q vs %q", a, b)
	}
}

func TestNormalizeQuote(t *testing.T) {
	q := events.RawQuote{BookID: "betano", BookName: "Betano", Market: "1x2", Selection: "home", Price: -110}
	nq, ok := normalizer.NormalizeQuote(q, "F1", maxDecimalOdds)
	if !ok {
		t.Fatal("expected quote to survive normalization")
	}
	if math.Abs(nq.DecimalOdds-1.9090909) > 0.0001 {
		t.Errorf("DecimalOdds = %f, want 1.909", nq.DecimalOdds)
	}
	if math.Abs(nq.ImpliedProb-1.0/nq.DecimalOdds) > 1e-12 {
		t.Errorf("ImpliedProb = %f, want reciprocal of decimal odds", nq.ImpliedProb)
	}
	if nq.SelectionKey != "F1||1x2||home" {
		t.Errorf("SelectionKey = %q", nq.SelectionKey)
	}
}

func TestNormalizeQuoteDropsLongshots(t *testing.T) {
	// +1000 -> decimal 11.0, acima do teto de 10.0
	q := events.RawQuote{BookID: "betano", Market: "1x2", Selection: "away", Price: 1000}
	if _, ok := normalizer.NormalizeQuote(q, "F1", maxDecimalOdds); ok {
		t.Error("expected quote above decimal ceiling to be dropped")
	}
}

func TestNormalizeQuoteDropsZeroPrice(t *testing.T) {
	q := events.RawQuote{BookID: "betano", Market: "1x2", Selection: "home", Price: 0}
	if _, ok := normalizer.NormalizeQuote(q, "F1", maxDecimalOdds); ok {
		t.Error("expected american odds 0 to be dropped at the boundary")
	}
}

func TestNormalizeQuoteDefaultsTimestampToNow(t *testing.T) {
	q := events.RawQuote{BookID: "betano", Market: "1x2", Selection: "home", Price: -110}
	before := time.Now().UTC()
	nq, ok := normalizer.NormalizeQuote(q, "F1", maxDecimalOdds)
	after := time.Now().UTC()
	if !ok {
		t.Fatal("expected quote to survive normalization")
	}
	if nq.Timestamp.Before(before) || nq.Timestamp.After(after) {
		t.Errorf("missing timestamp must default to now, got %v", nq.Timestamp)
	}
}

func TestNormalizeQuoteKeepsProvidedTimestamp(t *testing.T) {
	ts := &events.FlexTime{Time: time.Date(2025, 11, 2, 18, 0, 0, 0, time.UTC)}
	q := events.RawQuote{BookID: "betano", Market: "1x2", Selection: "home", Price: -110, Timestamp: ts}
	nq, ok := normalizer.NormalizeQuote(q, "F1", maxDecimalOdds)
	if !ok {
		t.Fatal("expected quote to survive normalization")
	}
	if !nq.Timestamp.Equal(ts.Time) {
		t.Errorf("Timestamp = %v, want %v", nq.Timestamp, ts.Time)
	}
}

func normalizeAll(t *testing.T, quotes []events.RawQuote) []normalizer.NormalizedQuote {
	t.Helper()
	out := make([]normalizer.NormalizedQuote, 0, len(quotes))
	for _, q := range quotes {
		nq, ok := normalizer.NormalizeQuote(q, "F1", maxDecimalOdds)
		if !ok {
			t.Fatalf("quote %v unexpectedly dropped", q)
		}
		out = append(out, nq)
	}
	return out
}

func TestGroupBySelection(t *testing.T) {
	quotes := normalizeAll(t, []events.RawQuote{
		{BookID: "pinnacle", BookName: "Pinnacle", Market: "1x2", Selection: "home", Price: -115},
		{BookID: "betano", BookName: "Betano", Market: "1x2", Selection: "home", Price: -105},
		{BookID: "betano", BookName: "Betano", Market: "1x2", Selection: "away", Price: 120},
		{BookID: "kto", BookName: "KTO", Market: "1x2", Selection: "home", Price: -110},
	})

	groups := normalizer.GroupBySelection(quotes, []string{"betano", "kto"}, "pinnacle")
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	home := groups[0]
	if home.SelectionKey != "F1||1x2||home" || len(home.Books) != 3 {
		t.Fatalf("unexpected first group: %+v", home)
	}
	for _, b := range home.Books {
		switch b.BookID {
		case "pinnacle":
			if !b.IsSharp || b.IsTarget {
				t.Errorf("pinnacle flags wrong: %+v", b)
			}
		case "betano", "kto":
			if !b.IsTarget || b.IsSharp {
				t.Errorf("%s flags wrong: %+v", b.BookID, b)
			}
		}
		if b.IsOutlier {
			t.Errorf("IsOutlier must start false, got %+v", b)
		}
	}
}

func TestGroupBySelectionLastWriteWins(t *testing.T) {
	quotes := normalizeAll(t, []events.RawQuote{
		{BookID: "betano", BookName: "Betano", Market: "1x2", Selection: "home", Price: -110},
		{BookID: "betano", BookName: "Betano", Market: "1x2", Selection: "home", Price: -120},
	})

	groups := normalizer.GroupBySelection(quotes, []string{"betano"}, "pinnacle")
	if len(groups) != 1 || len(groups[0].Books) != 1 {
		t.Fatalf("duplicated book must collapse to one entry: %+v", groups)
	}

	want := 100.0/120.0 + 1.0
	if math.Abs(groups[0].Books[0].DecimalOdds-want) > 0.0001 {
		t.Errorf("expected last quote to win, got odds %f", groups[0].Books[0].DecimalOdds)
	}
}
