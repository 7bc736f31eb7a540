package events

import "time"

// BookOdds é a entrada de um sportsbook dentro de um grupo de seleção.
// IsOutlier só é preenchido pelo estimador de fair odds.
type BookOdds struct {
	BookID             string  `json:"bookId"`
	BookName           string  `json:"bookName"`
	DecimalOdds        float64 `json:"decimalOdds"`
	ImpliedProbability float64 `json:"impliedProbability"`
	IsTarget           bool    `json:"isTarget"`
	IsSharp            bool    `json:"isSharp"`
	IsOutlier          bool    `json:"isOutlier"`
}

// FairOddsResult é a saída de um método de estimação sobre um grupo.
// Quando IsFallback é true a probabilidade ainda é um melhor esforço;
// zero só aparece quando não há dado utilizável.
type FairOddsResult struct {
	Method          string   `json:"method"`
	FairProbability float64  `json:"fairProbability"`
	FairOdds        float64  `json:"fairOdds"`
	BooksUsed       int      `json:"booksUsed"`
	BooksExcluded   int      `json:"booksExcluded"`
	ExcludedBooks   []string `json:"excludedBooks,omitempty"`
	IsFallback      bool     `json:"isFallback"`
	FallbackReason  string   `json:"fallbackReason,omitempty"`
}

// EVCalculation é o EV de um book alvo contra a probabilidade justa de um método.
type EVCalculation struct {
	Method             string  `json:"method"`
	BookID             string  `json:"bookId"`
	BookName           string  `json:"bookName"`
	EVPercent          float64 `json:"evPercent"`
	FairProbability    float64 `json:"fairProbability"`
	FairOdds           float64 `json:"fairOdds"`
	OfferedOdds        float64 `json:"offeredOdds"`
	ImpliedProbability float64 `json:"impliedProbability"`
}

// EVOpportunity é a entidade persistida/publicada por seleção de mercado.
// O ID é determinístico (selectionKey + método + book vencedores), então
// reprocessar o mesmo mercado atualiza o mesmo registro.
type EVOpportunity struct {
	ID           string                     `json:"id"`
	FixtureID    string                     `json:"fixtureId"`
	HomeTeam     string                     `json:"homeTeam"`
	AwayTeam     string                     `json:"awayTeam"`
	Market       string                     `json:"market"`
	Selection    string                     `json:"selection"`
	Line         *float64                   `json:"line,omitempty"`
	PlayerID     string                     `json:"playerId,omitempty"`
	PlayerName   string                     `json:"playerName,omitempty"`
	SelectionKey string                     `json:"selectionKey"`
	BestEV       *EVCalculation             `json:"bestEv,omitempty"`
	AllEVs       map[string][]EVCalculation `json:"allEvs"`
	FairOdds     map[string]FairOddsResult  `json:"fairOdds"`
	Odds         []BookOdds                 `json:"odds"` // books alvo primeiro
	BookCount    int                        `json:"bookCount"`
	Explanation  []string                   `json:"explanation,omitempty"`
	UpdatedAt    time.Time                  `json:"updatedAt"`
}
