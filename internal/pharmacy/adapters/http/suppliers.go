package http

import (
	"net/http"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
)

type supplierResponse struct {
	ID                int64    `json:"id"`
	Nom               string   `json:"nom"`
	Email             string   `json:"email"`
	CategorieLibelles []string `json:"categorieLibelles"`
}

func toSupplierResponse(s domain.Supplier) supplierResponse {
	return supplierResponse{
		ID:                s.ID,
		Nom:               s.Name,
		Email:             s.Email,
		CategorieLibelles: s.CategoryLabels(),
	}
}

func toSupplierResponses(suppliers []domain.Supplier) []supplierResponse {
	out := make([]supplierResponse, 0, len(suppliers))
	for _, s := range suppliers {
		out = append(out, toSupplierResponse(s))
	}
	return out
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.ListAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierResponses(suppliers))
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	supplier, err := h.suppliers.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierResponse(*supplier))
}

func (h *Handler) searchSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.SearchByName(r.Context(), r.URL.Query().Get("nom"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierResponses(suppliers))
}

func (h *Handler) listSuppliersByCategory(w http.ResponseWriter, r *http.Request) {
	code, err := pathInt(r, "code")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	suppliers, err := h.suppliers.ListByCategory(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierResponses(suppliers))
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	supplier, err := h.suppliers.Create(r.Context(), query.Get("nom"), query.Get("email"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSupplierResponse(*supplier))
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	query := r.URL.Query()
	supplier, err := h.suppliers.Update(r.Context(), id, query.Get("nom"), query.Get("email"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierResponse(*supplier))
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.suppliers.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addSupplierCategory(w http.ResponseWriter, r *http.Request) {
	id, code, ok := h.supplierCategoryPath(w, r)
	if !ok {
		return
	}

	supplier, err := h.suppliers.AddCategory(r.Context(), id, code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierResponse(*supplier))
}

func (h *Handler) removeSupplierCategory(w http.ResponseWriter, r *http.Request) {
	id, code, ok := h.supplierCategoryPath(w, r)
	if !ok {
		return
	}

	supplier, err := h.suppliers.RemoveCategory(r.Context(), id, code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierResponse(*supplier))
}

func (h *Handler) supplierCategoryPath(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return 0, 0, false
	}
	code, err := pathInt(r, "code")
	if err != nil {
		h.writeServiceError(w, r, err)
		return 0, 0, false
	}
	return id, code, true
}
