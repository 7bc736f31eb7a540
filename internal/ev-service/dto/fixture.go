package dto

// Fixture representa uma partida com oportunidades registradas
type Fixture struct {
	FixtureID string `json:"fixtureId"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
}

// OpportunitySummary é a visão enxuta de uma oportunidade para listagens
type OpportunitySummary struct {
	ID            string   `json:"id"`
	FixtureID     string   `json:"fixtureId"`
	SelectionKey  string   `json:"selectionKey"`
	Market        string   `json:"market"`
	Selection     string   `json:"selection"`
	BestEVPercent *float64 `json:"bestEvPercent,omitempty"`
	BestEVBook    string   `json:"bestEvBook,omitempty"`
	BestEVMethod  string   `json:"bestEvMethod,omitempty"`
	BookCount     int      `json:"bookCount"`
	UpdatedAt     string   `json:"updatedAt"`
}
