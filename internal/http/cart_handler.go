package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Ciriously/bookarchive/internal/analytics"
	"github.com/Ciriously/bookarchive/internal/store"
)

type CartHandler struct {
	store  *store.Store
	sink   analytics.Sink
	logger *log.Logger
}

func NewCartHandler(s *store.Store, sink analytics.Sink, logger *log.Logger) *CartHandler {
	return &CartHandler{store: s, sink: sink, logger: logger}
}

type cartResponse struct {
	Items       []store.CartLine `json:"items"`
	TotalAmount float64          `json:"totalAmount"`
}

func (h *CartHandler) cart() cartResponse {
	return cartResponse{Items: h.store.Cart(), TotalAmount: h.store.Total()}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cart())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var line store.CartLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if line.ID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	h.store.AddToCart(line)

	analytics.EmitEvent(h.sink, h.logger, analytics.EventAddedToCart, map[string]any{
		"Product Name": line.Title,
	})

	writeJSON(w, http.StatusOK, h.cart())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	// absent ids are a no-op by design
	h.store.RemoveFromCart(id)

	writeJSON(w, http.StatusOK, h.cart())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.ClearCart()
	writeJSON(w, http.StatusOK, h.cart())
}

// Checkout requires a member session, mirrors a Charged event and empties
// the cart. There is no payment processing behind it.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.store.User() == nil {
		writeError(w, http.StatusUnauthorized, "please login to checkout")
		return
	}

	lines := h.store.Cart()
	if len(lines) == 0 {
		writeError(w, http.StatusConflict, "cart is empty")
		return
	}

	items := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		items = append(items, map[string]any{
			"Category":  "Books",
			"Book name": line.Title,
			"Quantity":  line.Quantity,
			"Price":     line.Price,
		})
	}

	analytics.EmitEvent(h.sink, h.logger, analytics.EventCharged, map[string]any{
		"Amount":       h.store.Total(),
		"Payment mode": "Credit Card",
		"Charged ID":   time.Now().UnixMilli(),
		"Items":        items,
	})

	h.store.ClearCart()

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "order placed",
	})
}
