package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/radieske/ev-scanner-poc/internal/ev-service/dto"
	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

type ReadRepo struct {
	DB *sql.DB
}

// ListFixtures retorna as partidas distintas com oportunidades registradas.
// Os nomes dos times vêm do payload JSON da oportunidade mais recente.
func (r *ReadRepo) ListFixtures(ctx context.Context) ([]dto.Fixture, error) {
	const q = `
		SELECT fixture_id,
		       MAX(payload->>'homeTeam') AS home_team,
		       MAX(payload->>'awayTeam') AS away_team
		FROM ev_opportunities
		GROUP BY fixture_id
		ORDER BY fixture_id;
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.Fixture
	for rows.Next() {
		var f dto.Fixture
		if err := rows.Scan(&f.FixtureID, &f.HomeTeam, &f.AwayTeam); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListOpportunities retorna o resumo das oportunidades correntes com EV acima
// do mínimo informado, ordenadas do maior EV para o menor.
func (r *ReadRepo) ListOpportunities(ctx context.Context, minEv float64) ([]dto.OpportunitySummary, error) {
	const q = `
		SELECT id, fixture_id, selection_key, market, selection,
		       best_ev_percent, best_ev_book, best_ev_method, book_count,
		       to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SSZ')
		FROM ev_opportunities
		WHERE best_ev_percent IS NOT NULL AND best_ev_percent >= $1
		ORDER BY best_ev_percent DESC;
	`
	rows, err := r.DB.QueryContext(ctx, q, minEv)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.OpportunitySummary
	for rows.Next() {
		var s dto.OpportunitySummary
		var percent sql.NullFloat64
		var book, method sql.NullString
		if err := rows.Scan(&s.ID, &s.FixtureID, &s.SelectionKey, &s.Market, &s.Selection,
			&percent, &book, &method, &s.BookCount, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if percent.Valid {
			v := percent.Float64
			s.BestEVPercent = &v
		}
		s.BestEVBook = book.String
		s.BestEVMethod = method.String
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetOpportunity retorna a oportunidade completa a partir do payload JSON.
// Retorna sql.ErrNoRows quando o id não existe.
func (r *ReadRepo) GetOpportunity(ctx context.Context, id string) (events.EVOpportunity, error) {
	const q = `SELECT payload FROM ev_opportunities WHERE id = $1;`
	var raw []byte
	if err := r.DB.QueryRowContext(ctx, q, id).Scan(&raw); err != nil {
		return events.EVOpportunity{}, err
	}
	var o events.EVOpportunity
	if err := json.Unmarshal(raw, &o); err != nil {
		return events.EVOpportunity{}, err
	}
	return o, nil
}

// ListByFixture retorna as oportunidades completas de uma partida
func (r *ReadRepo) ListByFixture(ctx context.Context, fixtureID string) ([]events.EVOpportunity, error) {
	const q = `
		SELECT payload
		FROM ev_opportunities
		WHERE fixture_id = $1
		ORDER BY best_ev_percent DESC NULLS LAST, selection_key;
	`
	rows, err := r.DB.QueryContext(ctx, q, fixtureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []events.EVOpportunity
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var o events.EVOpportunity
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
