package estimator

import (
	"fmt"

	"github.com/radieske/ev-scanner-poc/internal/ev-processor/normalizer"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/stats"
	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

// Method identifica um método de estimação de fair odds.
// Conjunto fechado: o switch em Estimate é o ponto único de despacho e
// método desconhecido é erro, não fallback.
type Method string

const (
	// Consenso do painel com corte de outliers por MAD
	MethodTrimmedMean Method = "trimmed_mean"

	// Probabilidade do book sharp com de-vig aproximado
	MethodSharpRef Method = "sharp_ref"
)

// Methods devolve todos os métodos configurados, na ordem canônica de execução
func Methods() []Method {
	return []Method{MethodTrimmedMean, MethodSharpRef}
}

// DisplayName é o nome legível usado nas explicações
func (m Method) DisplayName() string {
	switch m {
	case MethodTrimmedMean:
		return "trimmed market consensus"
	case MethodSharpRef:
		return "sharp book reference"
	}
	return string(m)
}

// Overround fixo assumido para de-vig de uma cotação sharp isolada.
// Aproximação conhecida: o de-vig correto precisaria da cotação do lado
// oposto, que o agrupamento por seleção não resolve.
const sharpOverround = 1.025

// Config são os parâmetros estáticos do estimador
type Config struct {
	MinBooks         int
	OutlierThreshold float64
	SharpBookID      string
}

// Estimate roda um método sobre o grupo e devolve o resultado mais uma CÓPIA
// anotada da lista de books (isOutlier preenchido quando o método corta
// painel). O grupo de entrada nunca é mutado, então rodar vários métodos
// sobre o mesmo grupo não tem efeito de ordem.
//
// Nenhuma condição de qualidade de dado vira erro: painel curto e casos
// degenerados retornam resultado com isFallback=true. Erro só para método
// desconhecido.
func Estimate(g normalizer.SelectionGroup, m Method, cfg Config) (events.FairOddsResult, []events.BookOdds, error) {
	switch m {
	case MethodTrimmedMean:
		res, books := estimateTrimmedMean(g, cfg)
		return res, books, nil
	case MethodSharpRef:
		res, books := estimateSharpRef(g, cfg)
		return res, books, nil
	}
	return events.FairOddsResult{}, nil, fmt.Errorf("unknown estimation method %q", m)
}

// EstimateAll roda todos os métodos configurados e devolve o mapa de
// resultados por método mais a lista de books anotada pelo trimmed mean
// (o único método que marca outliers).
func EstimateAll(g normalizer.SelectionGroup, cfg Config) (map[Method]events.FairOddsResult, []events.BookOdds) {
	results := make(map[Method]events.FairOddsResult, len(Methods()))
	annotated := cloneBooks(g.Books)

	for _, m := range Methods() {
		res, books, err := Estimate(g, m, cfg)
		if err != nil {
			continue // inalcançável com o conjunto fechado acima
		}
		results[m] = res
		if m == MethodTrimmedMean {
			annotated = books
		}
	}
	return results, annotated
}

// estimateTrimmedMean: detecta outliers nas probabilidades implícitas do
// painel e tira a média das sobreviventes.
func estimateTrimmedMean(g normalizer.SelectionGroup, cfg Config) (events.FairOddsResult, []events.BookOdds) {
	books := cloneBooks(g.Books)

	if len(books) < cfg.MinBooks {
		return fallbackResult(MethodTrimmedMean, len(books), cfg.MinBooks), books
	}

	probs := make([]float64, len(books))
	for i, b := range books {
		probs[i] = b.ImpliedProbability
	}

	det := stats.DetectOutliers(probs, cfg.OutlierThreshold)
	for i := range books {
		books[i].IsOutlier = det.Flags[i]
	}

	kept := make([]float64, 0, len(probs))
	var excluded []string
	for i, b := range books {
		if b.IsOutlier {
			excluded = append(excluded, b.BookID)
			continue
		}
		kept = append(kept, probs[i])
	}

	// Caso degenerado: nada sobrou. Cai para a mediana do painel inteiro;
	// booksUsed reporta o painel cheio porque ninguém foi excluído de fato.
	if len(kept) == 0 {
		med, _ := stats.Median(probs) // painel >= MinBooks garante não-vazio
		return events.FairOddsResult{
			Method:          string(MethodTrimmedMean),
			FairProbability: med,
			FairOdds:        reciprocal(med),
			BooksUsed:       len(probs),
			IsFallback:      true,
			FallbackReason:  fmt.Sprintf("all %d books flagged as outliers, falling back to panel median", len(probs)),
		}, books
	}

	fair, _ := stats.Mean(kept)
	return events.FairOddsResult{
		Method:          string(MethodTrimmedMean),
		FairProbability: fair,
		FairOdds:        reciprocal(fair),
		BooksUsed:       len(kept),
		BooksExcluded:   len(excluded),
		ExcludedBooks:   excluded,
	}, books
}

// estimateSharpRef: usa a probabilidade implícita do book sharp dividida por
// um overround fixo. Sem o sharp no painel, degrada para o consenso
// (trimmed mean) re-rotulado, nunca falha.
func estimateSharpRef(g normalizer.SelectionGroup, cfg Config) (events.FairOddsResult, []events.BookOdds) {
	books := cloneBooks(g.Books)

	if len(books) < cfg.MinBooks {
		return fallbackResult(MethodSharpRef, len(books), cfg.MinBooks), books
	}

	var sharp *events.BookOdds
	for i := range books {
		if books[i].IsSharp {
			sharp = &books[i]
			break
		}
	}

	if sharp == nil {
		res, annotated := estimateTrimmedMean(g, cfg)
		res.Method = string(MethodSharpRef)
		res.IsFallback = true
		res.FallbackReason = "sharp book does not quote this market"
		return res, annotated
	}

	fair := sharp.ImpliedProbability / sharpOverround
	return events.FairOddsResult{
		Method:          string(MethodSharpRef),
		FairProbability: fair,
		FairOdds:        reciprocal(fair),
		BooksUsed:       1,
		BooksExcluded:   len(books) - 1,
	}, books
}

// fallbackResult é o resultado padrão de painel insuficiente: probabilidade
// zero sinaliza ao EV calculator que não há nada para pontuar.
func fallbackResult(m Method, got, min int) events.FairOddsResult {
	return events.FairOddsResult{
		Method:         string(m),
		IsFallback:     true,
		FallbackReason: fmt.Sprintf("only %d books quoted, minimum panel is %d", got, min),
	}
}

func cloneBooks(books []events.BookOdds) []events.BookOdds {
	out := make([]events.BookOdds, len(books))
	copy(out, books)
	return out
}

func reciprocal(p float64) float64 {
	if p <= 0 {
		return 0
	}
	return 1.0 / p
}
