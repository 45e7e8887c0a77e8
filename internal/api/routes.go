package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Metrics(),
		Logging(h.logger),
	)

	// Work items
	mux.Handle("GET /api/v1/work-items", chain(http.HandlerFunc(h.ListWorkItems)))
	mux.Handle("POST /api/v1/work-items", chain(http.HandlerFunc(h.CreateWorkItem)))
	mux.Handle("GET /api/v1/work-items/{id}", chain(http.HandlerFunc(h.GetWorkItem)))
	mux.Handle("POST /api/v1/work/run", chain(http.HandlerFunc(h.RunWork)))

	// Workflows
	mux.Handle("GET /api/v1/workflows", chain(http.HandlerFunc(h.ListWorkflows)))
	mux.Handle("GET /api/v1/workflows/{class}/targets/{type}/{id}", chain(http.HandlerFunc(h.GetWorkflow)))
	mux.Handle("PUT /api/v1/workflows/{class}/targets/{type}/{id}", chain(http.HandlerFunc(h.UpdateWorkflow)))

	// Targets
	mux.Handle("PUT /api/v1/targets/{type}/{id}", chain(http.HandlerFunc(h.PutTarget)))
	mux.Handle("DELETE /api/v1/targets/{type}/{id}", chain(http.HandlerFunc(h.DeleteTarget)))
	mux.Handle("GET /api/v1/targets/{type}/{id}/results", chain(http.HandlerFunc(h.ListResults)))

	// Registries
	mux.Handle("GET /api/v1/registries", chain(http.HandlerFunc(h.ListRegistries)))
	mux.Handle("POST /api/v1/password-checks", chain(http.HandlerFunc(h.CheckPassword)))

	// Service
	mux.HandleFunc("GET /healthz", Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Healthz — проверка живости процесса.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
