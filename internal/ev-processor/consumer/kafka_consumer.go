package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/ev-scanner-poc/internal/ev-processor/cache"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/estimator"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/evcalc"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/normalizer"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/repository"
	"github.com/radieske/ev-scanner-poc/internal/shared/config"
	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

// Processor consome lotes de cotações do Kafka, roda o motor de fair odds/EV
// e persiste as oportunidades resultantes.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	DLQ    *kafka.Writer // mensagens indecifráveis vão para o tópico de dead letter
	Repo   *repository.PostgresRepo
	Cache  *cache.RedisCache
	Engine config.EngineConfig

	OnConsumed func()       // métricas (counter++)
	OnComputed func()       // métricas: oportunidade calculada
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase

	// Chamado depois da persistência, para broadcast via Redis Pub/Sub
	OnAfterPersist func(events.EVOpportunity)
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed() // callback de métrica: mensagem consumida
		}

		var batch events.QuoteBatch
		if err := json.Unmarshal(m.Value, &batch); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			p.sendToDLQ(ctx, m)
			continue
		}

		p.processBatch(ctx, batch)
	}
}

// sendToDLQ repassa a mensagem original para o tópico de dead letter,
// preservando chave e payload para inspeção posterior
func (p *Processor) sendToDLQ(ctx context.Context, m kafka.Message) {
	if p.DLQ == nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.DLQ.WriteMessages(wctx, kafka.Message{Key: m.Key, Value: m.Value}); err != nil {
		p.Log.Warn("dlq publish failed", zap.Error(err))
		if p.OnError != nil {
			p.OnError("dlq")
		}
	}
}

// processBatch normaliza e agrupa as cotações do lote, roda o cálculo de
// oportunidades por seleção e persiste o que sobrevive ao corte de EV mínimo
func (p *Processor) processBatch(ctx context.Context, batch events.QuoteBatch) {
	normalized := make([]normalizer.NormalizedQuote, 0, len(batch.Quotes))
	dropped := 0
	for _, q := range batch.Quotes {
		nq, ok := normalizer.NormalizeQuote(q, batch.FixtureID, p.Engine.MaxDecimalOdds)
		if !ok {
			dropped++
			continue
		}
		normalized = append(normalized, nq)
	}
	if dropped > 0 {
		p.Log.Debug("quotes dropped during normalization",
			zap.String("fixture_id", batch.FixtureID),
			zap.Int("dropped", dropped),
		)
	}

	groups := normalizer.GroupBySelection(normalized, p.Engine.TargetBookIDs, p.Engine.SharpBookID)

	engineCfg := evcalc.Config{
		TargetBookIDs: p.Engine.TargetBookIDs,
		Estimator: estimator.Config{
			MinBooks:         p.Engine.MinBooks,
			OutlierThreshold: p.Engine.OutlierThreshold,
			SharpBookID:      p.Engine.SharpBookID,
		},
	}
	meta := evcalc.FixtureMeta{
		FixtureID: batch.FixtureID,
		HomeTeam:  batch.HomeTeam,
		AwayTeam:  batch.AwayTeam,
		UpdatedAt: batch.UpdatedAt,
	}

	for _, g := range groups {
		opp := evcalc.CalculateOpportunities(g, meta, engineCfg)
		if opp == nil {
			continue
		}
		if p.OnComputed != nil {
			p.OnComputed()
		}

		// Corte por EV mínimo é decisão daqui, não do motor. No modo de
		// tracking a seleção fica, mas sem bestEv abaixo do mínimo.
		if opp.BestEV != nil && opp.BestEV.EVPercent < p.Engine.MinEVPercent {
			if !p.Engine.TrackAllSelections {
				continue
			}
			opp.BestEV = nil
		}
		opp.Explanation = evcalc.GenerateExplanation(opp)

		// Atualiza cache Redis com a oportunidade corrente
		if err := p.Cache.SetCurrent(ctx, *opp); err != nil {
			p.Log.Warn("redis set failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("cache")
			}
			// não bloqueia persistência se falhar o cache
		}

		// Persiste/atualiza oportunidade corrente e histórico no Postgres
		if err := p.Repo.UpsertCurrent(ctx, *opp); err != nil {
			p.Log.Warn("db upsert failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_upsert")
			}
			continue
		}
		if err := p.Repo.InsertHistory(ctx, *opp); err != nil {
			p.Log.Warn("db insert history failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_history")
			}
			continue
		}
		if p.OnPersist != nil {
			p.OnPersist() // callback de métrica: persistência concluída
		}

		if p.OnAfterPersist != nil {
			p.OnAfterPersist(*opp)
		}
	}
}
