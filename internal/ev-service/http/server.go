package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/ev-scanner-poc/internal/ev-service/cache"
	"github.com/radieske/ev-scanner-poc/internal/ev-service/repo"
	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

// API expõe os endpoints REST de consulta de oportunidades de EV
// Utiliza um repositório de leitura (Postgres) e cache (Redis)
type API struct {
	ReadRepo *repo.ReadRepo // acesso ao banco de dados
	Cache    *cache.Cache   // cache de oportunidades
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/opportunities", a.listOpportunities)             // Lista oportunidades correntes
	r.Get("/v1/opportunities/{id}", a.getOpportunity)           // Detalhe de uma oportunidade
	r.Get("/v1/fixtures", a.listFixtures)                       // Lista partidas monitoradas
	r.Get("/v1/fixtures/{id}/opportunities", a.listByFixture)   // Oportunidades de uma partida
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// listOpportunities retorna o resumo das oportunidades correntes.
// Aceita ?minEv= para filtrar por EV mínimo (default 0)
func (a *API) listOpportunities(w http.ResponseWriter, r *http.Request) {
	minEv := 0.0
	if raw := r.URL.Query().Get("minEv"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid minEv"})
			return
		}
		minEv = v
	}

	out, err := a.ReadRepo.ListOpportunities(r.Context(), minEv)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// getOpportunity retorna a oportunidade completa, preferencialmente do cache
func (a *API) getOpportunity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fromCache events.EVOpportunity
	if ok, _ := a.Cache.GetOpportunity(r.Context(), id, &fromCache); ok {
		writeJSON(w, http.StatusOK, fromCache)
		return
	}

	o, err := a.ReadRepo.GetOpportunity(r.Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	_ = a.Cache.SetOpportunity(r.Context(), id, o, 30*time.Second) // salva no cache por 30s
	writeJSON(w, http.StatusOK, o)
}

// listFixtures retorna as partidas com oportunidades registradas
func (a *API) listFixtures(w http.ResponseWriter, r *http.Request) {
	fx, err := a.ReadRepo.ListFixtures(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, fx)
}

// listByFixture retorna todas as oportunidades de uma partida
func (a *API) listByFixture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := a.ReadRepo.ListByFixture(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}
