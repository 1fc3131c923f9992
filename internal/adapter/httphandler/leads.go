package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// LeadsHandler serves the lead form of the current session.
type LeadsHandler struct {
	leads port.LeadCapturer
}

func RegisterLeads(mux *http.ServeMux, leads port.LeadCapturer) {
	h := LeadsHandler{leads}
	mux.HandleFunc("POST /v1/leads", h.CaptureLead)
	mux.HandleFunc("GET /v1/leads/current", h.GetLead)
	mux.HandleFunc("POST /v1/leads/current/offer", h.SelectOffer)
	mux.HandleFunc("GET /v1/leads/current/quotation", h.GetQuotation)
}

func (h LeadsHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	const op = "LeadsHandler.CaptureLead"
	log := slog.With("op", op)

	var req Lead
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	l, err := h.leads.CaptureLead(
		r.Context(), SessionID(r.Context()), req.toDomain(),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusCreated, leadFromDomain(l))
}

func (h LeadsHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	const op = "LeadsHandler.GetLead"
	log := slog.With("op", op)

	l, err := h.leads.Lead(r.Context(), SessionID(r.Context()))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, leadFromDomain(l))
}

func (h LeadsHandler) SelectOffer(w http.ResponseWriter, r *http.Request) {
	const op = "LeadsHandler.SelectOffer"
	log := slog.With("op", op)

	var req OfferRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	c, err := h.leads.SelectOffer(
		r.Context(), SessionID(r.Context()), domain.Offer(req.Offer),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, Conversion{
		Offer:       string(c.Offer),
		NextStep:    c.Offer.NextStep(),
		ConvertedAt: c.ConvertedAt,
	})
}

func (h LeadsHandler) GetQuotation(w http.ResponseWriter, r *http.Request) {
	const op = "LeadsHandler.GetQuotation"
	log := slog.With("op", op)

	q, err := h.leads.Quotation(r.Context(), SessionID(r.Context()))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, quotationFromDomain(q))
}
