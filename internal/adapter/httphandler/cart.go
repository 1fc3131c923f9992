package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/port"
)

type CartHandler struct {
	carts  port.CartManager
	symbol string
}

func RegisterCart(mux *http.ServeMux, carts port.CartManager, symbol string) {
	h := CartHandler{carts, symbol}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("POST /v1/cart/items", h.AddItem)
	mux.HandleFunc("PUT /v1/cart/items/{id}", h.UpdateQuantity)
	mux.HandleFunc("DELETE /v1/cart/items/{id}", h.RemoveItem)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"
	log := slog.With("op", op)

	v, err := h.carts.Cart(r.Context(), SessionID(r.Context()))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartFromView(v, h.symbol))
}

func (h CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.AddItem"
	log := slog.With("op", op)

	var req AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	quantity := req.quantity()
	v, err := h.carts.AddItem(
		r.Context(), SessionID(r.Context()), req.ProductID, quantity, req.options(),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}

	log.Info("item added", "productID", req.ProductID, "quantity", quantity)
	writeJSON(w, log, http.StatusOK, cartFromView(v, h.symbol))
}

func (h CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.UpdateQuantity"
	log := slog.With("op", op)

	var req UpdateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	v, err := h.carts.UpdateQuantity(
		r.Context(), SessionID(r.Context()), r.PathValue("id"), req.Quantity,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartFromView(v, h.symbol))
}

func (h CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.RemoveItem"
	log := slog.With("op", op)

	v, err := h.carts.RemoveItem(
		r.Context(), SessionID(r.Context()), r.PathValue("id"),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartFromView(v, h.symbol))
}
