package http

import (
	"net/http"

	"github.com/dejobratic/pharmacie/internal/pharmacy/app"
	"github.com/shopspring/decimal"
)

type categoryRequest struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

type medicationRequest struct {
	Name             string          `json:"name"`
	CategoryCode     int64           `json:"category_code"`
	QuantityPerUnit  string          `json:"quantity_per_unit"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	UnitsInStock     int             `json:"units_in_stock"`
	UnitsOnOrder     int             `json:"units_on_order"`
	ReorderThreshold int             `json:"reorder_threshold"`
	Unavailable      bool            `json:"unavailable"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	code, err := pathInt(r, "code")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	category, err := h.catalog.GetCategory(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryRequest
	if err := decodeJSON(r, &payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), payload.Label, payload.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	code, err := pathInt(r, "code")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var payload categoryRequest
	if err := decodeJSON(r, &payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), code, payload.Label, payload.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	code, err := pathInt(r, "code")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), code); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCategoryMedications(w http.ResponseWriter, r *http.Request) {
	code, err := pathInt(r, "code")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	medications, err := h.catalog.ListMedicationsByCategory(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, medications)
}

func (h *Handler) listMedications(w http.ResponseWriter, r *http.Request) {
	medications, err := h.catalog.ListMedications(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, medications)
}

func (h *Handler) getMedication(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	medication, err := h.catalog.GetMedication(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, medication)
}

func (h *Handler) createMedication(w http.ResponseWriter, r *http.Request) {
	var payload medicationRequest
	if err := decodeJSON(r, &payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	medication, err := h.catalog.CreateMedication(r.Context(), app.CreateMedicationInput{
		Name:             payload.Name,
		CategoryCode:     payload.CategoryCode,
		QuantityPerUnit:  payload.QuantityPerUnit,
		UnitPrice:        payload.UnitPrice,
		UnitsInStock:     payload.UnitsInStock,
		UnitsOnOrder:     payload.UnitsOnOrder,
		ReorderThreshold: payload.ReorderThreshold,
		Unavailable:      payload.Unavailable,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, medication)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	units, err := queryInt(r, "unites")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	medication, err := h.catalog.AdjustStock(r.Context(), id, units)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, medication)
}

func (h *Handler) deleteMedication(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.catalog.DeleteMedication(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
