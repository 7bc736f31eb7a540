package evcalc_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/radieske/ev-scanner-poc/internal/ev-processor/estimator"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/evcalc"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/normalizer"
	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

const tolerance = 1e-9

func testConfig() evcalc.Config {
	return evcalc.Config{
		TargetBookIDs: []string{"betano", "kto"},
		Estimator: estimator.Config{
			MinBooks:         3,
			OutlierThreshold: 3.5,
			SharpBookID:      "pinnacle",
		},
	}
}

func testMeta() evcalc.FixtureMeta {
	return evcalc.FixtureMeta{
		FixtureID: "F1",
		HomeTeam:  "Flamengo",
		AwayTeam:  "Palmeiras",
		UpdatedAt: time.Date(2025, 11, 2, 18, 0, 0, 0, time.UTC),
	}
}

func book(id string, decimalOdds float64, sharp, target bool) events.BookOdds {
	return events.BookOdds{
		BookID:             id,
		BookName:           strings.ToUpper(id[:1]) + id[1:],
		DecimalOdds:        decimalOdds,
		ImpliedProbability: 1.0 / decimalOdds,
		IsSharp:            sharp,
		IsTarget:           target,
	}
}

func group(books ...events.BookOdds) normalizer.SelectionGroup {
	return normalizer.SelectionGroup{
		SelectionKey: "F1||1x2||home",
		FixtureID:    "F1",
		Market:       "1x2",
		Selection:    "home",
		Books:        books,
	}
}

func TestCalculateEVSigns(t *testing.T) {
	tests := []struct {
		name     string
		fairProb float64
		odds     float64
		want     float64
	}{
		{"positive ev", 0.5, 2.2, 10.0},
		{"negative ev", 0.5, 1.8, -10.0},
		{"break even", 0.5, 2.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evcalc.CalculateEV(tt.fairProb, tt.odds)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("CalculateEV(%f, %f) = %f, want %f", tt.fairProb, tt.odds, got, tt.want)
			}
		})
	}
}

func TestCalculateEVGuardsInvalidProbability(t *testing.T) {
	for _, p := range []float64{0, 1, -0.2, 1.3} {
		if got := evcalc.CalculateEV(p, 2.5); got != 0 {
			t.Errorf("CalculateEV(%f, 2.5) = %f, want exactly 0", p, got)
		}
	}
}

func TestCalculateEVForTargetsZeroProbability(t *testing.T) {
	books := []events.BookOdds{book("betano", 2.0, false, true)}
	fair := events.FairOddsResult{Method: "trimmed_mean", FairProbability: 0, IsFallback: true}

	if got := evcalc.CalculateEVForTargets(books, fair, []string{"betano"}); len(got) != 0 {
		t.Errorf("expected empty list for zero fair probability, got %v", got)
	}
}

func TestCalculateEVForTargetsAbsurdityFilter(t *testing.T) {
	// odds 100 com fair prob 0.5 -> EV de 4900%, artefato de dado
	books := []events.BookOdds{book("betano", 100.0, false, true)}
	fair := events.FairOddsResult{Method: "trimmed_mean", FairProbability: 0.5, FairOdds: 2.0}

	if got := evcalc.CalculateEVForTargets(books, fair, []string{"betano"}); len(got) != 0 {
		t.Errorf("expected absurd EV to be filtered, got %v", got)
	}
}

func TestCalculateEVForTargetsOnlyTargetBooks(t *testing.T) {
	books := []events.BookOdds{
		book("pinnacle", 2.05, true, false),
		book("betano", 2.1, false, true),
		book("kto", 2.0, false, true),
		book("bet365", 2.2, false, false),
	}
	fair := events.FairOddsResult{Method: "trimmed_mean", FairProbability: 0.49, FairOdds: 1.0 / 0.49}

	got := evcalc.CalculateEVForTargets(books, fair, []string{"betano", "kto"})
	if len(got) != 2 {
		t.Fatalf("expected exactly one record per target book, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, c := range got {
		seen[c.BookID] = true
	}
	if !seen["betano"] || !seen["kto"] {
		t.Errorf("unexpected books in result: %v", seen)
	}
}

func TestCalculateOpportunitiesNilWhenNoCandidates(t *testing.T) {
	// painel fino: todos os métodos caem para probabilidade 0, nada a pontuar
	g := group(book("betano", 2.0, false, true), book("kto", 2.1, false, true))

	if opp := evcalc.CalculateOpportunities(g, testMeta(), testConfig()); opp != nil {
		t.Errorf("expected nil opportunity for thin panel, got %+v", opp)
	}
}

func TestCalculateOpportunities(t *testing.T) {
	g := group(
		book("pinnacle", 2.0, true, false),
		book("betano", 2.15, false, true),
		book("kto", 2.05, false, true),
		book("bet365", 1.95, false, false),
	)

	opp := evcalc.CalculateOpportunities(g, testMeta(), testConfig())
	if opp == nil {
		t.Fatal("expected an opportunity")
	}

	if opp.BestEV == nil {
		t.Fatal("expected bestEv to be set")
	}
	if opp.BestEV.BookID != "betano" {
		t.Errorf("best book = %s, want betano (highest offered odds)", opp.BestEV.BookID)
	}
	if opp.BookCount != 4 || len(opp.Odds) != 4 {
		t.Errorf("BookCount/Odds = %d/%d, want 4/4", opp.BookCount, len(opp.Odds))
	}

	// books alvo primeiro, ordem relativa preservada
	if !opp.Odds[0].IsTarget || !opp.Odds[1].IsTarget {
		t.Errorf("target books must come first: %+v", opp.Odds)
	}
	if opp.Odds[0].BookID != "betano" || opp.Odds[1].BookID != "kto" {
		t.Errorf("relative target order not preserved: %s, %s", opp.Odds[0].BookID, opp.Odds[1].BookID)
	}

	// um resultado de fair odds por método e a lista completa de EVs
	for _, m := range estimator.Methods() {
		if _, ok := opp.FairOdds[string(m)]; !ok {
			t.Errorf("missing fair odds result for method %s", m)
		}
		if evs := opp.AllEVs[string(m)]; len(evs) != 2 {
			t.Errorf("method %s: expected EV for both target books, got %d", m, len(evs))
		}
	}
}

func TestCalculateOpportunitiesIdempotent(t *testing.T) {
	g := group(
		book("pinnacle", 2.0, true, false),
		book("betano", 2.15, false, true),
		book("kto", 2.05, false, true),
	)

	first := evcalc.CalculateOpportunities(g, testMeta(), testConfig())
	second := evcalc.CalculateOpportunities(g, testMeta(), testConfig())
	if first == nil || second == nil {
		t.Fatal("expected opportunities on both runs")
	}

	if first.ID != second.ID {
		t.Errorf("ids differ across runs: %s vs %s", first.ID, second.ID)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("identical input produced different opportunities:\n%s\n%s", a, b)
	}
}

func TestCalculateOpportunitiesBestEVWins(t *testing.T) {
	// sharp em 2.0 -> sharp_ref fair = 0.5/1.025 ~ 0.4878
	// consenso do painel fica mais alto, então trimmed_mean deve vencer
	g := group(
		book("pinnacle", 2.0, true, false),
		book("betano", 2.1, false, true),
		book("kto", 2.0, false, true),
		book("bet365", 1.9, false, false),
	)

	opp := evcalc.CalculateOpportunities(g, testMeta(), testConfig())
	if opp == nil || opp.BestEV == nil {
		t.Fatal("expected an opportunity with bestEv")
	}

	var wantBest events.EVCalculation
	found := false
	for _, evs := range opp.AllEVs {
		for _, c := range evs {
			if !found || c.EVPercent > wantBest.EVPercent {
				wantBest = c
				found = true
			}
		}
	}
	if !found {
		t.Fatal("no candidates recorded in AllEVs")
	}
	if opp.BestEV.Method != wantBest.Method || opp.BestEV.BookID != wantBest.BookID {
		t.Errorf("bestEv = %s/%s, want %s/%s",
			opp.BestEV.Method, opp.BestEV.BookID, wantBest.Method, wantBest.BookID)
	}
	if math.Abs(opp.BestEV.EVPercent-wantBest.EVPercent) > tolerance {
		t.Errorf("bestEv percent = %f, want %f", opp.BestEV.EVPercent, wantBest.EVPercent)
	}
}

func TestGenerateExplanation(t *testing.T) {
	g := group(
		book("pinnacle", 2.0, true, false),
		book("betano", 2.15, false, true),
		book("kto", 2.05, false, true),
	)

	opp := evcalc.CalculateOpportunities(g, testMeta(), testConfig())
	if opp == nil || opp.BestEV == nil {
		t.Fatal("expected an opportunity with bestEv")
	}

	lines := evcalc.GenerateExplanation(opp)
	if len(lines) < 2 {
		t.Fatalf("expected at least 2 lines, got %v", lines)
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, opp.BestEV.BookName) {
		t.Errorf("explanation must name the winning book: %q", joined)
	}
	if !strings.Contains(lines[0], "%") {
		t.Errorf("first line must carry the EV percent: %q", lines[0])
	}

	fair := opp.FairOdds[opp.BestEV.Method]
	hasOutlierLine := strings.Contains(joined, "outlier")
	if (fair.BooksExcluded > 0) != hasOutlierLine {
		t.Errorf("outlier line presence (%v) must match booksExcluded=%d", hasOutlierLine, fair.BooksExcluded)
	}
}

func TestGenerateExplanationWithExcludedBooks(t *testing.T) {
	opp := &events.EVOpportunity{
		BestEV: &events.EVCalculation{
			Method:          string(estimator.MethodTrimmedMean),
			BookID:          "betano",
			BookName:        "Betano",
			EVPercent:       7.5,
			FairProbability: 0.5,
			FairOdds:        2.0,
			OfferedOdds:     2.15,
		},
		FairOdds: map[string]events.FairOddsResult{
			string(estimator.MethodTrimmedMean): {
				Method:          string(estimator.MethodTrimmedMean),
				FairProbability: 0.5,
				FairOdds:        2.0,
				BooksUsed:       5,
				BooksExcluded:   2,
				ExcludedBooks:   []string{"a", "b"},
			},
		},
	}

	lines := evcalc.GenerateExplanation(opp)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines with excluded books, got %v", lines)
	}
	if !strings.Contains(lines[2], "2 sportsbook(s) excluded") {
		t.Errorf("missing excluded-book count: %q", lines[2])
	}
}

func TestGenerateExplanationNilSafe(t *testing.T) {
	if lines := evcalc.GenerateExplanation(nil); lines != nil {
		t.Errorf("nil opportunity must yield nil, got %v", lines)
	}
	if lines := evcalc.GenerateExplanation(&events.EVOpportunity{}); lines != nil {
		t.Errorf("opportunity without bestEv must yield nil, got %v", lines)
	}
}
