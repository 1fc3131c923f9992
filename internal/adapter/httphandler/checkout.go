package httphandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
)

const catalogPath = "/v1/products"

type CheckoutHandler struct {
	checkout port.CheckoutProcessor
	symbol   string
}

func RegisterCheckout(
	mux *http.ServeMux, checkout port.CheckoutProcessor, symbol string,
) {
	h := CheckoutHandler{checkout, symbol}
	mux.HandleFunc("POST /v1/checkout", h.Checkout)
	mux.HandleFunc("GET /v1/orders/{number}/confirmation", h.GetConfirmation)
}

func (h CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "CheckoutHandler.Checkout"
	log := slog.With("op", op)

	var req CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	c, err := h.checkout.Checkout(
		r.Context(), SessionID(r.Context()), req.toDomain(),
	)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			http.Redirect(w, r, catalogPath, http.StatusSeeOther)
			return
		}
		writeError(w, log, err)
		return
	}

	w.Header().Set("Location", "/v1/orders/"+c.OrderNumber+"/confirmation")
	writeJSON(w, log, http.StatusCreated, confirmationFromDomain(c, h.symbol))
}

func (h CheckoutHandler) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	const op = "CheckoutHandler.GetConfirmation"
	log := slog.With("op", op)

	c := h.checkout.Confirmation(
		r.Context(), SessionID(r.Context()), r.PathValue("number"),
	)
	writeJSON(w, log, http.StatusOK, confirmationFromDomain(c, h.symbol))
}
