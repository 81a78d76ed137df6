package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Ciriously/bookarchive/internal/analytics"
	"github.com/Ciriously/bookarchive/internal/store"
)

type SessionHandler struct {
	store  *store.Store
	sink   analytics.Sink
	logger *log.Logger
}

func NewSessionHandler(s *store.Store, sink analytics.Sink, logger *log.Logger) *SessionHandler {
	return &SessionHandler{store: s, sink: sink, logger: logger}
}

type loginRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
	Phone       string `json:"phone"`
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user := h.store.User()
	if user == nil {
		writeError(w, http.StatusNotFound, "not logged in")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Login accepts any identity claim; the only gate is the login form's own:
// name, email and phone must be present. No format checks, no credentials.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Name == "" || body.Email == "" || body.Phone == "" {
		writeError(w, http.StatusBadRequest, "name, email and phone are required")
		return
	}

	h.store.Login(body.Name, body.Email, body.CountryCode, body.Phone)

	writeJSON(w, http.StatusOK, h.store.User())
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout()
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *SessionHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := h.store.User()
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	analytics.EmitEvent(h.sink, h.logger, analytics.EventProfileViewed, map[string]any{})

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile replaces the session through the same path as login and
// mirrors the update to the marketing platform.
func (h *SessionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if h.store.User() == nil {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Name == "" || body.Email == "" || body.Phone == "" {
		writeError(w, http.StatusBadRequest, "name, email and phone are required")
		return
	}

	h.store.Login(body.Name, body.Email, body.CountryCode, body.Phone)

	analytics.EmitEvent(h.sink, h.logger, analytics.EventProfileUpdated, map[string]any{
		"Status": "Success",
	})
	h.store.ShowToast("Member Profile Updated Successfully")

	writeJSON(w, http.StatusOK, h.store.User())
}
