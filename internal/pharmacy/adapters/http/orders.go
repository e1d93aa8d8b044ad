package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

const idempotencyHeader = "Idempotency-Key"

// createOrder replays the stored response when the Idempotency-Key was already used.
// Requests without the header are never deduplicated.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))

	if idemKey != "" {
		stored, err := h.orders.GetIdempotentResponse(ctx, idemKey)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	order, err := h.orders.CreateOrder(ctx, r.URL.Query().Get("dispensaire"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	body, err := json.Marshal(order)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if idemKey != "" {
		stored := ports.StoredResponse{
			StatusCode:  http.StatusCreated,
			Body:        body,
			OrderNumber: order.Number,
		}
		if err := h.orders.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "numero")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), number)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) listOpenOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOpenOrders(r.Context(), r.URL.Query().Get("dispensaire"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) addOrderLine(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "numero")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	medicationID, err := queryInt(r, "medicament")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	quantity, err := queryInt(r, "quantite")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	line, err := h.orders.AddLine(r.Context(), number, int64(medicationID), quantity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (h *Handler) removeOrderLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.orders.RemoveLine(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) shipOrder(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "numero")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	order, err := h.orders.ShipOrder(r.Context(), number)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
