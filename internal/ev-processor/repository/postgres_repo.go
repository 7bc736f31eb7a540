package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

// PostgresRepo implementa a persistência de oportunidades de EV no Postgres
// DB: conexão com o banco de dados
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// UpsertCurrent insere ou atualiza a oportunidade corrente na tabela
// ev_opportunities. O id é determinístico, então ON CONFLICT substitui o
// registro em vez de duplicar quando o mesmo mercado é reprocessado.
func (r *PostgresRepo) UpsertCurrent(ctx context.Context, o events.EVOpportunity) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO ev_opportunities
		  (id, fixture_id, selection_key, market, selection, line, player_id,
		   best_ev_percent, best_ev_book, best_ev_method, book_count, payload, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
		  fixture_id      = EXCLUDED.fixture_id,
		  selection_key   = EXCLUDED.selection_key,
		  market          = EXCLUDED.market,
		  selection       = EXCLUDED.selection,
		  line            = EXCLUDED.line,
		  player_id       = EXCLUDED.player_id,
		  best_ev_percent = EXCLUDED.best_ev_percent,
		  best_ev_book    = EXCLUDED.best_ev_book,
		  best_ev_method  = EXCLUDED.best_ev_method,
		  book_count      = EXCLUDED.book_count,
		  payload         = EXCLUDED.payload,
		  updated_at      = EXCLUDED.updated_at
	`
	bestPercent, bestBook, bestMethod := bestColumns(o)
	_, err = r.DB.ExecContext(ctx, q,
		o.ID, o.FixtureID, o.SelectionKey, o.Market, o.Selection,
		nullFloat(o.Line), nullString(o.PlayerID),
		bestPercent, bestBook, bestMethod,
		o.BookCount, payload, o.UpdatedAt,
	)
	return err
}

// InsertHistory insere uma linha no histórico de oportunidades
// (ev_opportunities_history), uma por rodada do pipeline
func (r *PostgresRepo) InsertHistory(ctx context.Context, o events.EVOpportunity) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO ev_opportunities_history
		  (opportunity_id, fixture_id, selection_key, best_ev_percent, payload, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6)
	`
	bestPercent, _, _ := bestColumns(o)
	_, err = r.DB.ExecContext(ctx, q,
		o.ID, o.FixtureID, o.SelectionKey, bestPercent, payload, o.UpdatedAt,
	)
	return err
}

// bestColumns extrai as colunas desnormalizadas do bestEv (nulas quando a
// seleção está sendo mantida só para tracking, sem EV acima do mínimo)
func bestColumns(o events.EVOpportunity) (sql.NullFloat64, sql.NullString, sql.NullString) {
	if o.BestEV == nil {
		return sql.NullFloat64{}, sql.NullString{}, sql.NullString{}
	}
	return sql.NullFloat64{Float64: o.BestEV.EVPercent, Valid: true},
		sql.NullString{String: o.BestEV.BookID, Valid: true},
		sql.NullString{String: o.BestEV.Method, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
