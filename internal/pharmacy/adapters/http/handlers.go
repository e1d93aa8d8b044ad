package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dejobratic/pharmacie/internal/pharmacy/app"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

// ReadinessCheck reports whether backing services can take traffic.
type ReadinessCheck func(ctx context.Context) error

// Handler exposes the pharmacy API under /api.
type Handler struct {
	suppliers     *app.SupplierService
	catalog       *app.CatalogService
	orders        *app.OrderService
	notifications *app.NotificationService
	ready         ReadinessCheck
	logger        *slog.Logger
}

// NewHandler constructs a Handler. A nil readiness check always reports ready.
func NewHandler(
	suppliers *app.SupplierService,
	catalog *app.CatalogService,
	orders *app.OrderService,
	notifications *app.NotificationService,
	ready ReadinessCheck,
	logger *slog.Logger,
) *Handler {
	if ready == nil {
		ready = func(context.Context) error { return nil }
	}
	return &Handler{
		suppliers:     suppliers,
		catalog:       catalog,
		orders:        orders,
		notifications: notifications,
		ready:         ready,
		logger:        logger,
	}
}

// Register binds every route to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /readyz", h.readyz)

	mux.HandleFunc("GET /api/fournisseurs", h.listSuppliers)
	mux.HandleFunc("GET /api/fournisseurs/search", h.searchSuppliers)
	mux.HandleFunc("GET /api/fournisseurs/categorie/{code}", h.listSuppliersByCategory)
	mux.HandleFunc("GET /api/fournisseurs/{id}", h.getSupplier)
	mux.HandleFunc("POST /api/fournisseurs", h.createSupplier)
	mux.HandleFunc("PUT /api/fournisseurs/{id}", h.updateSupplier)
	mux.HandleFunc("DELETE /api/fournisseurs/{id}", h.deleteSupplier)
	mux.HandleFunc("POST /api/fournisseurs/{id}/categories/{code}", h.addSupplierCategory)
	mux.HandleFunc("DELETE /api/fournisseurs/{id}/categories/{code}", h.removeSupplierCategory)

	mux.HandleFunc("POST /api/notifications/verifier-stock", h.checkStock)

	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("POST /api/categories", h.createCategory)
	mux.HandleFunc("GET /api/categories/{code}", h.getCategory)
	mux.HandleFunc("PUT /api/categories/{code}", h.updateCategory)
	mux.HandleFunc("DELETE /api/categories/{code}", h.deleteCategory)
	mux.HandleFunc("GET /api/categories/{code}/medicaments", h.listCategoryMedications)

	mux.HandleFunc("GET /api/medicaments", h.listMedications)
	mux.HandleFunc("POST /api/medicaments", h.createMedication)
	mux.HandleFunc("GET /api/medicaments/{id}", h.getMedication)
	mux.HandleFunc("DELETE /api/medicaments/{id}", h.deleteMedication)
	mux.HandleFunc("PUT /api/medicaments/{id}/stock", h.adjustStock)

	mux.HandleFunc("POST /api/commandes", h.createOrder)
	mux.HandleFunc("GET /api/commandes/en-cours", h.listOpenOrders)
	mux.HandleFunc("GET /api/commandes/{numero}", h.getOrder)
	mux.HandleFunc("POST /api/commandes/{numero}/lignes", h.addOrderLine)
	mux.HandleFunc("POST /api/commandes/{numero}/expedition", h.shipOrder)
	mux.HandleFunc("DELETE /api/lignes/{id}", h.removeOrderLine)

	mux.HandleFunc("GET /api/dispensaires", h.listDispensaries)
	mux.HandleFunc("GET /api/dispensaires/{code}", h.getDispensary)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.ready(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (h *Handler) checkStock(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "stock check requested")

	count, err := h.notifications.CheckAllMedications(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%d médicament(s) nécessite(nt) un réapprovisionnement", count),
		"count":   count,
	})
}

func (h *Handler) listDispensaries(w http.ResponseWriter, r *http.Request) {
	dispensaries, err := h.orders.ListDispensaries(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dispensaries)
}

func (h *Handler) getDispensary(w http.ResponseWriter, r *http.Request) {
	dispensary, err := h.orders.GetDispensary(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dispensary)
}

// writeServiceError maps service sentinels to status codes. Unknown errors are logged and
// hidden behind a generic 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func pathInt(r *http.Request, name string) (int64, error) {
	value, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return value, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return value, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", domain.ErrInvalidInput)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
