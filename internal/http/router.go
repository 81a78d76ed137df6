package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Ciriously/bookarchive/internal/analytics"
	"github.com/Ciriously/bookarchive/internal/middleware"
	"github.com/Ciriously/bookarchive/internal/store"
)

type Deps struct {
	Logger *log.Logger

	Store   *store.Store
	Shelves ShelfFetcher
	Search  SearchFetcher
	Sink    analytics.Sink

	CORSAllowOrigins []string
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler)

	session := NewSessionHandler(d.Store, d.Sink, d.Logger)
	mux.HandleFunc("GET /api/session", session.GetSession)
	mux.HandleFunc("POST /api/session/login", session.Login)
	mux.HandleFunc("POST /api/session/logout", session.Logout)
	mux.HandleFunc("GET /api/profile", session.GetProfile)
	mux.HandleFunc("POST /api/profile", session.UpdateProfile)

	cart := NewCartHandler(d.Store, d.Sink, d.Logger)
	mux.HandleFunc("GET /api/cart", cart.GetCart)
	mux.HandleFunc("POST /api/cart/items", cart.AddItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", cart.RemoveItem)
	mux.HandleFunc("POST /api/cart/clear", cart.ClearCart)
	mux.HandleFunc("POST /api/cart/checkout", cart.Checkout)

	cat := NewCatalogHandler(d.Shelves, d.Search, d.Store, d.Sink, d.Logger)
	mux.HandleFunc("GET /api/shop/{category}", cat.Shelf)
	mux.HandleFunc("GET /api/books/{id}", cat.GetBook)
	mux.HandleFunc("GET /api/home/hero", cat.Hero)
	mux.HandleFunc("POST /api/home/buy", cat.BuyNow)
	mux.HandleFunc("GET /api/search", cat.Search)

	toast := NewToastHandler(d.Store)
	mux.HandleFunc("GET /api/toast", toast.GetToast)
	mux.HandleFunc("POST /api/toast/dismiss", toast.Dismiss)

	// Middlewares (outer -> inner)
	var h http.Handler = mux
	h = middleware.Recover(d.Logger)(h)
	h = middleware.CORS(d.CORSAllowOrigins)(h)
	h = middleware.Logging(d.Logger)(h)
	h = middleware.CorrelationID(h)

	return h
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "service": "storefront"}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
