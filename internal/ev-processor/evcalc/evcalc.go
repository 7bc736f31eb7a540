package evcalc

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"time"

	"github.com/radieske/ev-scanner-poc/internal/ev-processor/estimator"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/normalizer"
	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

// Filtro de absurdo: EVs com magnitude acima disso são artefato de dado
// (probabilidade ofertada quase nula contra fair prob muito maior), não
// oportunidade real. Descartados em silêncio, sem cap e sem warning.
const absurdEVPercent = 200.0

// Config são os parâmetros estáticos do cálculo de EV.
// MinEVPercent fica de fora de propósito: o corte por EV mínimo é decisão
// do chamador (o worker filtra; o modo de tracking mantém tudo).
type Config struct {
	TargetBookIDs []string
	Estimator     estimator.Config
}

// FixtureMeta são os descritores do fixture repassados para a oportunidade
type FixtureMeta struct {
	FixtureID string
	HomeTeam  string
	AwayTeam  string
	UpdatedAt time.Time
}

// CalculateEV calcula o EV percentual de uma cotação contra a probabilidade
// justa: (p * odds - 1) * 100.
//
// Probabilidade fora do intervalo aberto (0,1) devolve exatamente 0: a
// estimativa é inutilizável para essa seleção e reportar um número espúrio
// seria pior do que não reportar nada.
func CalculateEV(fairProb, offeredDecimalOdds float64) float64 {
	if fairProb <= 0 || fairProb >= 1 {
		return 0
	}
	return (fairProb*offeredDecimalOdds - 1.0) * 100.0
}

// CalculateEVForTargets calcula o EV de cada book alvo contra um resultado
// de fair odds. Probabilidade zero (estimador sem dado utilizável) devolve
// lista vazia; EVs absurdos são filtrados.
func CalculateEVForTargets(books []events.BookOdds, fair events.FairOddsResult, targetBookIDs []string) []events.EVCalculation {
	if fair.FairProbability == 0 {
		return nil
	}

	targets := make(map[string]bool, len(targetBookIDs))
	for _, id := range targetBookIDs {
		targets[id] = true
	}

	var out []events.EVCalculation
	for _, b := range books {
		if !targets[b.BookID] {
			continue
		}

		ev := CalculateEV(fair.FairProbability, b.DecimalOdds)
		if math.Abs(ev) > absurdEVPercent {
			continue
		}

		out = append(out, events.EVCalculation{
			Method:             fair.Method,
			BookID:             b.BookID,
			BookName:           b.BookName,
			EVPercent:          ev,
			FairProbability:    fair.FairProbability,
			FairOdds:           fair.FairOdds,
			OfferedOdds:        b.DecimalOdds,
			ImpliedProbability: b.ImpliedProbability,
		})
	}
	return out
}

// CalculateOpportunities roda todos os métodos de estimação sobre o grupo,
// calcula o EV por (método, book alvo) e devolve a oportunidade da seleção
// com o melhor candidato. Nil quando nenhum candidato sobrevive aos filtros
// (a seleção é simplesmente descartada nessa rodada).
//
// O corte por EV mínimo NÃO acontece aqui; o melhor candidato é eleito pelo
// maior EV bruto e o chamador decide o threshold. Entrada idêntica produz
// saída idêntica (mesmo id, mesmos números).
func CalculateOpportunities(g normalizer.SelectionGroup, meta FixtureMeta, cfg Config) *events.EVOpportunity {
	fairByMethod, annotated := estimator.EstimateAll(g, cfg.Estimator)

	allEVs := make(map[string][]events.EVCalculation, len(fairByMethod))
	var candidates []events.EVCalculation

	// Ordem canônica dos métodos mantém a seleção do melhor determinística
	for _, m := range estimator.Methods() {
		fair, ok := fairByMethod[m]
		if !ok {
			continue
		}
		evs := CalculateEVForTargets(annotated, fair, cfg.TargetBookIDs)
		allEVs[string(m)] = evs
		candidates = append(candidates, evs...)
	}

	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.EVPercent > best.EVPercent {
			best = c
		}
	}

	fairResults := make(map[string]events.FairOddsResult, len(fairByMethod))
	for m, r := range fairByMethod {
		fairResults[string(m)] = r
	}

	return &events.EVOpportunity{
		ID:           opportunityID(g.SelectionKey, best.Method, best.BookID),
		FixtureID:    meta.FixtureID,
		HomeTeam:     meta.HomeTeam,
		AwayTeam:     meta.AwayTeam,
		Market:       g.Market,
		Selection:    g.Selection,
		Line:         g.Line,
		PlayerID:     g.PlayerID,
		PlayerName:   g.PlayerName,
		SelectionKey: g.SelectionKey,
		BestEV:       &best,
		AllEVs:       allEVs,
		FairOdds:     fairResults,
		Odds:         sortTargetsFirst(annotated),
		BookCount:    len(annotated),
		UpdatedAt:    meta.UpdatedAt,
	}
}

// sortTargetsFirst devolve uma cópia com os books alvo na frente, mantendo a
// ordem relativa original nos dois blocos (o front sempre mostra primeiro
// onde dá para apostar).
func sortTargetsFirst(books []events.BookOdds) []events.BookOdds {
	out := make([]events.BookOdds, len(books))
	copy(out, books)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsTarget && !out[j].IsTarget
	})
	return out
}

// opportunityID deriva o id estável da oportunidade a partir da chave de
// seleção, método e book vencedores: reprocessar o mesmo mercado gera o
// mesmo id e o upsert substitui em vez de duplicar.
func opportunityID(selectionKey, method, bookID string) string {
	sum := sha256.Sum256([]byte(selectionKey + "||" + method + "||" + bookID))
	return hex.EncodeToString(sum[:12])
}
