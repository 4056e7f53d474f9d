package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"freight-route-engine/internal/api/dto"
	"freight-route-engine/internal/domain"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, r *http.Request, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && log != nil {
		log.Warn("encode failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, status int, msg string) {
	writeJSON(w, r, log, status, map[string]string{"error": msg})
}

// writeServiceError maps engine and store errors onto HTTP statuses.
// A store failure wins over not-found: an unknown intermediate city is a store fault.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrRepository):
		log.Error(op+" failed", zap.Error(err))
		writeError(w, r, log, http.StatusServiceUnavailable, "offer store unavailable")
	case errors.Is(err, domain.ErrCityNotFound):
		writeError(w, r, log, http.StatusNotFound, "city not found")
	case errors.Is(err, domain.ErrOfferNotFound):
		writeError(w, r, log, http.StatusNotFound, "offer not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, r, log, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Warn(op+" abandoned", zap.Error(err))
		writeError(w, r, log, http.StatusGatewayTimeout, "request timed out")
	default:
		log.Error(op+" failed", zap.Error(err))
		writeError(w, r, log, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// queryInt returns the named query parameter, or fallback when it is absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return v, nil
}

func queryCity(r *http.Request, name string) (domain.CityID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive city id", name)
	}
	return domain.CityID(v), nil
}

// Rates classifies price-per-km ratios for responses.
type Rates struct {
	Acceptable float64
	HighDemand float64
}

func (rt Rates) offer(s domain.ScoredOffer) dto.OfferResponse {
	return dto.OfferResponse{
		ID:             s.ID,
		Source:         s.Source,
		Sender:         s.Sender,
		OriginID:       int64(s.Origin),
		DestinationID:  int64(s.Destination),
		Price:          s.Price,
		EstimatedPrice: s.EstimatedPrice,
		EffectivePrice: s.Effective,
		DistanceKm:     s.Distance,
		PricePerKm:     s.PricePerKm,
		RateClass:      string(domain.ClassifyRate(s.PricePerKm, rt.Acceptable, rt.HighDemand)),
		LFNumber:       s.LFNumber,
		Urgency:        s.Urgency,
		AdditionalInfo: s.AdditionalInfo,
		Unverified:     s.Unverified,
		CreatedAt:      s.CreatedAt,
	}
}

func (rt Rates) offers(scored []domain.ScoredOffer) []dto.OfferResponse {
	out := make([]dto.OfferResponse, 0, len(scored))
	for _, s := range scored {
		out = append(out, rt.offer(s))
	}
	return out
}

func (rt Rates) route(kind string, rte domain.Route) dto.RouteResponse {
	var ratio *float64
	if rte.TotalDistance > 0 {
		ratio = &rte.PricePerKm
	}
	return dto.RouteResponse{
		Kind:            kind,
		Segments:        rt.offers(rte.Segments),
		TotalDistanceKm: rte.TotalDistance,
		TotalRevenue:    rte.TotalRevenue,
		PricePerKm:      rte.PricePerKm,
		RateClass:       string(domain.ClassifyRate(ratio, rt.Acceptable, rt.HighDemand)),
	}
}

// storeErr tags direct store failures so they map like engine repository errors.
func storeErr(err error) error {
	if errors.Is(err, domain.ErrCityNotFound) || errors.Is(err, domain.ErrOfferNotFound) || errors.Is(err, domain.ErrRepository) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrRepository, err)
}
