package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/ev-scanner-poc/internal/ev-processor/oddsmath"
	"github.com/radieske/ev-scanner-poc/internal/shared/config"
	"github.com/radieske/ev-scanner-poc/internal/shared/logger"
	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Catálogo fixo de partidas simuladas para geração de cotações
	fixtureCatalog = []events.QuoteBatch{
		{FixtureID: "FIX_001", Sport: "soccer", HomeTeam: "Flamengo", AwayTeam: "Palmeiras"},
		{FixtureID: "FIX_002", Sport: "soccer", HomeTeam: "Grêmio", AwayTeam: "Internacional"},
		{FixtureID: "FIX_003", Sport: "soccer", HomeTeam: "Corinthians", AwayTeam: "Santos"},
		{FixtureID: "FIX_004", Sport: "soccer", HomeTeam: "São Paulo", AwayTeam: "Vasco"},
	}

	// Painel de sportsbooks simulados. A margem do pinnacle é menor,
	// reproduzindo o comportamento de um book sharp.
	bookPanel = []struct {
		id     string
		name   string
		margin float64 // overround aplicado sobre a probabilidade justa
	}{
		{"pinnacle", "Pinnacle", 1.025},
		{"bet365", "Bet365", 1.06},
		{"betano", "Betano", 1.07},
		{"kto", "KTO", 1.07},
		{"sportingbet", "Sportingbet", 1.08},
		{"superbet", "Superbet", 1.08},
	}

	// Métricas Prometheus para monitoramento de conexões e mensagens
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "provider_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "provider_ws_messages_sent_total",
		Help: "Total de mensagens WS enviadas",
	})
)

// Representa uma conexão de cliente WebSocket
// id: identificador único da conexão
// conn: ponteiro para a conexão WebSocket
type clientConn struct {
	id   string
	conn *websocket.Conn
}

// Estrutura responsável por gerenciar os clientes conectados via WebSocket
// e realizar broadcast de mensagens para todos eles.
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

// Cria uma nova instância de hub para gerenciar conexões
func newHub(log *zap.Logger) *hub {
	return &hub{
		clients: make(map[string]*clientConn),
		log:     log,
	}
}

// Adiciona um novo cliente ao hub e incrementa a métrica de conexões
func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

// Remove um cliente do hub e decrementa a métrica de conexões
func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

// Envia uma mensagem para todos os clientes conectados
func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		} else {
			wsMessagesSent.Inc()
		}
	}
}

// gera número aleatório entre min e max
func rnd(min, max float64) float64 {
	return (rand.Float64() * (max - min)) + min
}

// priceFor converte a probabilidade justa de uma seleção na cotação americana
// oferecida pelo book, aplicando a margem e um ruído pequeno por book.
func priceFor(fairProb, margin float64) int {
	p := fairProb * margin * rnd(0.98, 1.02)
	if p >= 0.97 {
		p = 0.97
	}
	decimal := 1.0 / p
	american, err := oddsmath.DecimalToAmerican(decimal)
	if err != nil {
		return -110
	}
	return american
}

// quotesFor gera o painel de cotações de um fixture: mercado 1x2, total de
// gols na linha 2.5 e um prop de finalizações do atacante da casa.
// Com baixa frequência um book recebe uma cotação deslocada (erro simulado).
func quotesFor(fixture events.QuoteBatch, now time.Time) []events.RawQuote {
	line := 2.5
	playerID := fixture.FixtureID + "_P9"
	playerName := "Camisa 9 (" + fixture.HomeTeam + ")"

	// Probabilidades justas sorteadas por rodada e normalizadas
	home := rnd(0.25, 0.50)
	draw := rnd(0.20, 0.30)
	away := 1.0 - home - draw
	over := rnd(0.40, 0.60)
	shots := rnd(0.45, 0.65)

	ts := events.FlexTime{Time: now}
	outlierBook := ""
	if rand.Intn(10) == 0 {
		outlierBook = bookPanel[rand.Intn(len(bookPanel))].id
	}

	var out []events.RawQuote
	for _, b := range bookPanel {
		sel := []struct {
			market    string
			selection string
			line      *float64
			playerID  string
			player    string
			prob      float64
		}{
			{"1x2", "home", nil, "", "", home},
			{"1x2", "draw", nil, "", "", draw},
			{"1x2", "away", nil, "", "", away},
			{"total_goals", "over", &line, "", "", over},
			{"total_goals", "under", &line, "", "", 1.0 - over},
			{"player_shots", "over", &line, playerID, playerName, shots},
		}
		for _, s := range sel {
			prob := s.prob
			if b.id == outlierBook && s.market == "1x2" && s.selection == "home" {
				prob = prob * 0.45 // cotação deslocada: book paga muito acima do painel
			}
			out = append(out, events.RawQuote{
				BookID:     b.id,
				BookName:   b.name,
				Market:     s.market,
				Selection:  s.selection,
				Line:       s.line,
				PlayerID:   s.playerID,
				PlayerName: s.player,
				Price:      priceFor(prob, b.margin),
				Timestamp:  &ts,
			})
		}
	}
	return out
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	rand.Seed(time.Now().UnixNano())

	prometheus.MustRegister(wsConnections, wsMessagesSent)

	h := newHub(log)

	// Gera e envia lotes de cotações simuladas a cada 3 segundos
	go func() {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		version := 1
		for range ticker.C {
			now := time.Now().UTC()
			for i := range fixtureCatalog {
				batch := fixtureCatalog[i]
				batch.Quotes = quotesFor(batch, now)
				batch.UpdatedAt = now
				batch.Source = cfg.ServiceName
				batch.Version = version
				h.broadcast(batch)
			}
			version++
		}
	}()

	// ==== MUX PÚBLICO (HTTP principal): /ws
	appMux := http.NewServeMux()

	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		// Goroutine para manter a conexão viva e remover cliente ao desconectar
		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				// Lê e descarta mensagens do cliente para manter o socket limpo
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	// Servidor de métricas em goroutine
	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("provider simulator (metrics) running",
			zap.String("addr", metricsAddr),
			zap.String("paths", "/healthz,/metrics"),
		)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// Servidor público (WS)
	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("provider simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/ws"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
