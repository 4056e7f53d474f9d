package api

import (
	"freight-route-engine/internal/api/handlers"
	"freight-route-engine/internal/platform/metrics"
	"freight-route-engine/internal/ports"
	"freight-route-engine/internal/services"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Engine     *services.Engine
	Normalizer *services.OfferNormalizer
	Store      ports.OfferStore
	Log        *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	metrics.RegisterDefault()

	cfg := d.Engine.Config()
	rates := handlers.Rates{Acceptable: cfg.AcceptableRate, HighDemand: cfg.HighDemandRate}

	cityHandler := &handlers.CityHandler{Engine: d.Engine, Log: log}
	routeHandler := &handlers.RouteHandler{Engine: d.Engine, Log: log}
	offerHandler := &handlers.OfferHandler{Normalizer: d.Normalizer, Store: d.Store, Rates: rates, Log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /cities/{id}/loads", cityHandler.Loads)
	mux.HandleFunc("GET /cities/{id}/offers", cityHandler.Offers)
	mux.HandleFunc("GET /cities/{id}/risk", cityHandler.Risk)

	mux.HandleFunc("GET /routes/direct", routeHandler.Direct)
	mux.HandleFunc("GET /routes/multi-leg", routeHandler.MultiLeg)

	mux.HandleFunc("POST /offers", offerHandler.Ingest)
	mux.HandleFunc("GET /offers/unverified", offerHandler.ListUnverified)
	mux.HandleFunc("POST /offers/{id}/unverified", offerHandler.MarkUnverified)
	mux.HandleFunc("POST /offers/{id}/correction", offerHandler.Correct)

	return requestIDMiddleware(loggingMiddleware(log, mux))
}
