package handlers

import (
	"freight-route-engine/internal/api/dto"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/services"
	"net/http"

	"go.uber.org/zap"
)

type CityHandler struct {
	Engine *services.Engine
	Log    *zap.Logger
}

func (h *CityHandler) rates() Rates {
	cfg := h.Engine.Config()
	return Rates{Acceptable: cfg.AcceptableRate, HighDemand: cfg.HighDemandRate}
}

// Loads returns the best-paying offers departing the city.
func (h *CityHandler) Loads(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	best, err := h.Engine.BestLoadsFrom(r.Context(), domain.CityID(id), limit)
	if err != nil {
		writeServiceError(w, r, h.Log, "best loads", err)
		return
	}

	writeJSON(w, r, h.Log, http.StatusOK, dto.ListOffersResponse{Offers: h.rates().offers(best)})
}

// Offers returns the offers departing the city within the window, newest first.
func (h *CityHandler) Offers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}
	days, err := queryInt(r, "days", 0)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	recent, err := h.Engine.RecentOffers(r.Context(), domain.CityID(id), days)
	if err != nil {
		writeServiceError(w, r, h.Log, "recent offers", err)
		return
	}

	writeJSON(w, r, h.Log, http.StatusOK, dto.ListOffersResponse{Offers: h.rates().offers(recent)})
}

// Risk classifies the return-load risk of the city.
func (h *CityHandler) Risk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}
	days, err := queryInt(r, "days", h.Engine.Config().LookbackDays)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	level, err := h.Engine.AssessRisk(r.Context(), domain.CityID(id), days)
	if err != nil {
		writeServiceError(w, r, h.Log, "assess risk", err)
		return
	}

	writeJSON(w, r, h.Log, http.StatusOK, dto.RiskResponse{CityID: id, WindowDays: days, Risk: string(level)})
}
