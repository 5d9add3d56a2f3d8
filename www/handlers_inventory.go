package www

import (
	"encoding/json"
	"net/http"

	"wmsbridge/store"
)

// --- Stocks ---

func (h *Handlers) apiListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.db.ListStocks()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, stocks)
}

func (h *Handlers) apiGetStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	detail, err := h.db.GetStockDetail(id)
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, detail)
}

func (h *Handlers) apiCreateStock(w http.ResponseWriter, r *http.Request) {
	var s store.Stock
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if s.Name == "" {
		h.jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := h.db.CreateStock(&s); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, s)
}

func (h *Handlers) apiUpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var s store.Stock
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	s.ID = id
	if err := h.db.UpdateStock(&s); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, s)
}

func (h *Handlers) apiDeleteStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.db.DeleteStock(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]bool{"ok": true})
}

// --- Pins ---

func (h *Handlers) apiListPins(w http.ResponseWriter, r *http.Request) {
	pins, err := h.db.ListPins()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, pins)
}

func (h *Handlers) apiCreatePin(w http.ResponseWriter, r *http.Request) {
	var p store.Pin
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if p.Name == "" {
		h.jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := h.db.CreatePin(&p); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, p)
}

func (h *Handlers) apiUpdatePin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var p store.Pin
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	p.ID = id
	if err := h.db.UpdatePin(&p); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, p)
}

func (h *Handlers) apiDeletePin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.db.DeletePin(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]bool{"ok": true})
}

// --- Categories ---

func (h *Handlers) apiListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.db.ListCategories()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, categories)
}

func (h *Handlers) apiCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c store.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if c.Name == "" {
		h.jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := h.db.CreateCategory(&c); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, c)
}

func (h *Handlers) apiUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var c store.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	c.ID = id
	if err := h.db.UpdateCategory(&c); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, c)
}

func (h *Handlers) apiDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.db.DeleteCategory(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]bool{"ok": true})
}
