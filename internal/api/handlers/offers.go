package handlers

import (
	"freight-route-engine/internal/api/dto"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/ports"
	"freight-route-engine/internal/services"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type OfferHandler struct {
	Normalizer *services.OfferNormalizer
	Store      ports.OfferStore
	Rates      Rates
	Log        *zap.Logger
}

// Ingest normalizes a raw offer and stores it.
func (h *OfferHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req dto.IngestOfferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		writeError(w, r, h.Log, http.StatusBadRequest, "origin and destination are required")
		return
	}
	if req.Price != nil && *req.Price < 0 {
		writeError(w, r, h.Log, http.StatusBadRequest, "price must not be negative")
		return
	}

	offer, err := h.Normalizer.Ingest(r.Context(), services.RawOffer{
		Source:         req.Source,
		Sender:         req.Sender,
		Origin:         req.Origin,
		Destination:    req.Destination,
		Price:          req.Price,
		LFNumber:       req.LFNumber,
		Urgency:        req.Urgency,
		AdditionalInfo: req.AdditionalInfo,
		RawMessage:     req.RawMessage,
	})
	if err != nil {
		writeServiceError(w, r, h.Log, "ingest offer", err)
		return
	}

	writeJSON(w, r, h.Log, http.StatusCreated, h.Rates.offer(services.ScoreOffer(offer)))
}

// ListUnverified returns the offers waiting for manual correction.
func (h *OfferHandler) ListUnverified(w http.ResponseWriter, r *http.Request) {
	offers, err := h.Store.ListUnverified(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Log, "list unverified", storeErr(err))
		return
	}

	res := dto.ListOffersResponse{Offers: make([]dto.OfferResponse, 0, len(offers))}
	for _, o := range offers {
		res.Offers = append(res.Offers, h.Rates.offer(services.ScoreOffer(o)))
	}
	writeJSON(w, r, h.Log, http.StatusOK, res)
}

func (h *OfferHandler) MarkUnverified(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Store.MarkUnverified(r.Context(), id); err != nil {
		writeServiceError(w, r, h.Log, "mark unverified", storeErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Correct applies an operator's fix to an offer and returns the corrected offer.
func (h *OfferHandler) Correct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.CorrectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}
	if req.OriginID <= 0 || req.DestinationID <= 0 {
		writeError(w, r, h.Log, http.StatusBadRequest, "origin_id and destination_id are required")
		return
	}
	if req.Price != nil && *req.Price < 0 {
		writeError(w, r, h.Log, http.StatusBadRequest, "price must not be negative")
		return
	}

	c := domain.Correction{
		Origin:      domain.CityID(req.OriginID),
		Destination: domain.CityID(req.DestinationID),
		Price:       req.Price,
	}
	if err := h.Store.CorrectOffer(r.Context(), id, c); err != nil {
		writeServiceError(w, r, h.Log, "correct offer", storeErr(err))
		return
	}

	offer, err := h.Store.GetOffer(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.Log, "get offer", storeErr(err))
		return
	}
	writeJSON(w, r, h.Log, http.StatusOK, h.Rates.offer(services.ScoreOffer(offer)))
}
