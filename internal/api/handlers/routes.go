package handlers

import (
	"freight-route-engine/internal/api/dto"
	"freight-route-engine/internal/services"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

type RouteHandler struct {
	Engine *services.Engine
	Log    *zap.Logger
}

func (h *RouteHandler) rates() Rates {
	cfg := h.Engine.Config()
	return Rates{Acceptable: cfg.AcceptableRate, HighDemand: cfg.HighDemandRate}
}

// Direct answers "how do I get from A to B": every direct offer, else the
// first two-leg connection clearing min_ratio.
func (h *RouteHandler) Direct(w http.ResponseWriter, r *http.Request) {
	from, err := queryCity(r, "from")
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryCity(r, "to")
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	minRatio := h.Engine.Config().AcceptableRate
	if raw := r.URL.Query().Get("min_ratio"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			writeError(w, r, h.Log, http.StatusBadRequest, "min_ratio must be a finite non-negative number")
			return
		}
		minRatio = v
	}

	routes, err := h.Engine.Route(r.Context(), from, to, minRatio)
	if err != nil {
		writeServiceError(w, r, h.Log, "route", err)
		return
	}

	rt := h.rates()
	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, route := range routes {
		kind := "direct"
		if len(route.Segments) > 1 {
			kind = "indirect"
		}
		res.Routes = append(res.Routes, rt.route(kind, route))
	}

	writeJSON(w, r, h.Log, http.StatusOK, res)
}

// MultiLeg chains the best offers from a city and reports the return-load
// risk where the chain ends.
func (h *RouteHandler) MultiLeg(w http.ResponseWriter, r *http.Request) {
	from, err := queryCity(r, "from")
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}
	maxLegs, err := queryInt(r, "max_legs", 0)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.Engine.BuildRoute(r.Context(), from, maxLegs)
	if err != nil {
		writeServiceError(w, r, h.Log, "build route", err)
		return
	}

	res := dto.MultiLegResponse{}
	if route != nil {
		rr := h.rates().route("multi_leg", *route)
		res.Route = &rr

		if last, ok := route.LastCity(); ok {
			id := int64(last)
			res.FinalCity = &id

			level, err := h.Engine.AssessRisk(r.Context(), last, 0)
			if err != nil {
				h.Log.Warn("return-load risk unavailable", zap.Int64("city_id", id), zap.Error(err))
			}
			res.ReturnLoadRisk = string(level)
		}
	}

	writeJSON(w, r, h.Log, http.StatusOK, res)
}
