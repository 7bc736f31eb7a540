package events

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FlexTime aceita timestamp em segundos Unix (número) ou string RFC3339.
// Provedores de odds variam no formato; o unmarshal cobre os dois casos.
type FlexTime struct {
	time.Time
}

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}

	// Número puro: interpreta como segundos Unix
	if !strings.HasPrefix(s, `"`) {
		sec, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		t.Time = time.Unix(int64(sec), 0).UTC()
		return nil
	}

	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return err
	}
	t.Time = parsed.UTC()
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

// RawQuote é uma cotação bruta de um sportsbook para uma seleção de mercado.
// Price usa o formato americano (sempre <= -100 ou >= +100; 0 é inválido).
type RawQuote struct {
	BookID     string    `json:"bookId"`
	BookName   string    `json:"bookName"`
	Market     string    `json:"market"`    // ex: "1x2", "total_goals", "player_shots"
	Selection  string    `json:"selection"` // ex: "home", "over"
	Line       *float64  `json:"line,omitempty"`
	PlayerID   string    `json:"playerId,omitempty"`
	PlayerName string    `json:"playerName,omitempty"`
	Price      int       `json:"price"`
	Timestamp  *FlexTime `json:"timestamp,omitempty"`
}

// Evento publicado no tópico "quote_batches": todas as cotações coletadas
// de um fixture em uma passada do provedor.
type QuoteBatch struct {
	FixtureID string     `json:"fixtureId"`
	Sport     string     `json:"sport"`
	HomeTeam  string     `json:"homeTeam"`
	AwayTeam  string     `json:"awayTeam"`
	Quotes    []RawQuote `json:"quotes"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Source    string     `json:"source"`  // "provider-simulator"
	Version   int        `json:"version"` // incrementado a cada atualização
}
