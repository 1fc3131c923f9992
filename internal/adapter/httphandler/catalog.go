package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

type CatalogHandler struct {
	catalog port.CatalogReader
	symbol  string
}

func RegisterCatalog(mux *http.ServeMux, catalog port.CatalogReader) {
	h := CatalogHandler{catalog, catalog.Theme().CurrencySymbol}
	mux.HandleFunc("GET /v1/products", h.ListProducts)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
}

func (h CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.ListProducts"
	log := slog.With("op", op)

	q := r.URL.Query()
	filter := domain.ProductFilter{
		Category:  domain.Category(q.Get("category")),
		Intensity: domain.Intensity(q.Get("intensity")),
		Origin:    q.Get("origin"),
	}
	sort := domain.ProductSort(q.Get("sort"))

	ps, err := h.catalog.ListProducts(r.Context(), filter, sort)
	if err != nil {
		writeError(w, log, err)
		return
	}

	res := make([]Product, len(ps))
	for i, p := range ps {
		res[i] = productFromDomain(p, h.symbol)
	}
	writeJSON(w, log, http.StatusOK, res)
}

func (h CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetProduct"
	log := slog.With("op", op)

	p, err := h.catalog.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, productFromDomain(p, h.symbol))
}
