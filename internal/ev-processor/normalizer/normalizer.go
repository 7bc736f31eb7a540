package normalizer

import (
	"strconv"
	"strings"
	"time"

	"github.com/radieske/ev-scanner-poc/internal/ev-processor/oddsmath"
	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

// Separador fixo da chave de seleção; a chave é o join key entre books
const keySeparator = "||"

// Piso de odds decimais para evitar divisões explosivas
const minDecimalOdds = 1.01

// NormalizedQuote é uma cotação já convertida para odds decimais e
// probabilidade implícita, com a chave de seleção calculada.
// Imutável depois de criada; vive só durante uma passada do pipeline.
type NormalizedQuote struct {
	FixtureID    string
	BookID       string
	BookName     string
	Market       string
	Selection    string
	Line         *float64
	PlayerID     string
	PlayerName   string
	DecimalOdds  float64
	ImpliedProb  float64
	SelectionKey string
	Timestamp    time.Time
}

// SelectionGroup reúne todas as cotações de uma mesma seleção (mesma chave)
// com uma entrada por sportsbook.
type SelectionGroup struct {
	SelectionKey string
	FixtureID    string
	Market       string
	Selection    string
	Line         *float64
	PlayerID     string
	PlayerName   string
	Books        []events.BookOdds
}

// BuildSelectionKey monta a chave composta da seleção: fixture, mercado e
// seleção sempre presentes; line e playerId entram só quando existem.
// Duas cotações apontam para a mesma aposta sse as chaves são iguais.
func BuildSelectionKey(fixtureID, market, selection string, line *float64, playerID string) string {
	parts := []string{fixtureID, market, selection}
	if line != nil {
		parts = append(parts, strconv.FormatFloat(*line, 'f', -1, 64))
	}
	if playerID != "" {
		parts = append(parts, playerID)
	}
	return strings.Join(parts, keySeparator)
}

// NormalizeQuote converte preço americano -> decimal -> probabilidade e
// calcula a chave de seleção. Retorna ok=false quando a cotação deve ser
// descartada: preço americano inválido (incluindo 0) ou odds decimais acima
// do teto configurado (linhas absurdas são ruído, não dado de mercado).
func NormalizeQuote(q events.RawQuote, fixtureID string, maxDecimalOdds float64) (NormalizedQuote, bool) {
	decimal, err := oddsmath.AmericanToDecimal(q.Price)
	if err != nil {
		return NormalizedQuote{}, false
	}
	if decimal < minDecimalOdds {
		decimal = minDecimalOdds
	}
	if decimal > maxDecimalOdds {
		return NormalizedQuote{}, false
	}

	ts := time.Now().UTC()
	if q.Timestamp != nil && !q.Timestamp.IsZero() {
		ts = q.Timestamp.Time
	}

	return NormalizedQuote{
		FixtureID:    fixtureID,
		BookID:       q.BookID,
		BookName:     q.BookName,
		Market:       q.Market,
		Selection:    q.Selection,
		Line:         q.Line,
		PlayerID:     q.PlayerID,
		PlayerName:   q.PlayerName,
		DecimalOdds:  decimal,
		ImpliedProb:  1.0 / decimal,
		SelectionKey: BuildSelectionKey(fixtureID, q.Market, q.Selection, q.Line, q.PlayerID),
		Timestamp:    ts,
	}, true
}

// GroupBySelection agrupa cotações normalizadas por chave de seleção em uma
// única passada, marcando isTarget e isSharp em cada entrada. isOutlier nasce
// false e só é preenchido pelo estimador. Se o mesmo book aparecer duas vezes
// para a mesma seleção vale a última cotação (last-write-wins).
// A ordem dos grupos segue a ordem de chegada das cotações (determinística).
func GroupBySelection(quotes []NormalizedQuote, targetBookIDs []string, sharpBookID string) []SelectionGroup {
	targets := make(map[string]bool, len(targetBookIDs))
	for _, id := range targetBookIDs {
		targets[id] = true
	}

	byKey := make(map[string]*SelectionGroup)
	var order []string

	for _, q := range quotes {
		g, ok := byKey[q.SelectionKey]
		if !ok {
			g = &SelectionGroup{
				SelectionKey: q.SelectionKey,
				FixtureID:    q.FixtureID,
				Market:       q.Market,
				Selection:    q.Selection,
				Line:         q.Line,
				PlayerID:     q.PlayerID,
				PlayerName:   q.PlayerName,
			}
			byKey[q.SelectionKey] = g
			order = append(order, q.SelectionKey)
		}

		entry := events.BookOdds{
			BookID:             q.BookID,
			BookName:           q.BookName,
			DecimalOdds:        q.DecimalOdds,
			ImpliedProbability: q.ImpliedProb,
			IsTarget:           targets[q.BookID],
			IsSharp:            q.BookID == sharpBookID,
		}

		replaced := false
		for i := range g.Books {
			if g.Books[i].BookID == q.BookID {
				g.Books[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			g.Books = append(g.Books, entry)
		}
	}

	out := make([]SelectionGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}
