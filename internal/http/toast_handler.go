package http

import (
	"net/http"

	"github.com/Ciriously/bookarchive/internal/store"
)

type ToastHandler struct {
	store *store.Store
}

func NewToastHandler(s *store.Store) *ToastHandler {
	return &ToastHandler{store: s}
}

func (h *ToastHandler) GetToast(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ToastState())
}

func (h *ToastHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.store.HideToast()
	writeJSON(w, http.StatusOK, h.store.ToastState())
}
