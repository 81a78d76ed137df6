package http

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"

	"github.com/Ciriously/bookarchive/internal/analytics"
	"github.com/Ciriously/bookarchive/internal/catalog"
	"github.com/Ciriously/bookarchive/internal/store"
)

// ShelfFetcher is what the shop, detail and home surfaces need from the
// Open Library client.
type ShelfFetcher interface {
	Subject(ctx context.Context, category string, offset int) ([]catalog.Book, error)
	Work(ctx context.Context, id string) (*catalog.Book, error)
	TrendingDaily(ctx context.Context) (*catalog.Book, error)
}

// SearchFetcher is the Google Books side of the catalog boundary.
type SearchFetcher interface {
	Search(ctx context.Context, query string, limit int) ([]catalog.Book, error)
}

type CatalogHandler struct {
	shelves ShelfFetcher
	search  SearchFetcher
	store   *store.Store
	sink    analytics.Sink
	logger  *log.Logger
}

func NewCatalogHandler(shelves ShelfFetcher, search SearchFetcher, s *store.Store, sink analytics.Sink, logger *log.Logger) *CatalogHandler {
	return &CatalogHandler{shelves: shelves, search: search, store: s, sink: sink, logger: logger}
}

// Shelf serves a category page. A failed upstream fetch degrades to an
// empty shelf rather than an error; there is no retry and no cache.
func (h *CatalogHandler) Shelf(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "missing category")
		return
	}

	books, err := h.shelves.Subject(r.Context(), category, catalog.RandomShelfOffset())
	if err != nil {
		h.logger.Printf("shelf %q fetch failed: %v", category, err)
		books = nil
	}
	if books == nil {
		books = []catalog.Book{}
	}

	viewer := "Guest"
	if user := h.store.User(); user != nil {
		viewer = user.Email
	}
	analytics.EmitEvent(h.sink, h.logger, analytics.EventCategoryViewed, map[string]any{
		"Category Name": category,
		"User":          viewer,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"books":    books,
	})
}

func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	book, err := h.shelves.Work(r.Context(), id)
	if err != nil {
		h.logger.Printf("book %q fetch failed: %v", id, err)
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (h *CatalogHandler) Hero(w http.ResponseWriter, r *http.Request) {
	book, err := h.shelves.TrendingDaily(r.Context())
	if err != nil {
		h.logger.Printf("hero fetch failed: %v", err)
		writeError(w, http.StatusNotFound, "no hero book")
		return
	}

	writeJSON(w, http.StatusOK, book)
}

type buyNowRequest struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// BuyNow is the hero page's one-click purchase: member-gated, mirrored as a
// Charged event with a random 8-digit id, and it never touches the cart.
func (h *CatalogHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	if h.store.User() == nil {
		writeError(w, http.StatusUnauthorized, "login to buy")
		return
	}

	var body buyNowRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	analytics.EmitEvent(h.sink, h.logger, analytics.EventCharged, map[string]any{
		"Amount":       body.Price,
		"Payment mode": "Credit Card",
		"Charged ID":   10000000 + rand.Intn(90000000),
		"Items": []map[string]any{
			{
				"Category":  "Books",
				"Book name": body.Title,
				"Quantity":  1,
			},
		},
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "charged"})
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	books, err := h.search.Search(r.Context(), query, 20)
	if err != nil {
		h.logger.Printf("search %q failed: %v", query, err)
		books = nil
	}
	if books == nil {
		books = []catalog.Book{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query": query,
		"books": books,
	})
}
