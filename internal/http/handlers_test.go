package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ciriously/bookarchive/internal/analytics"
	"github.com/Ciriously/bookarchive/internal/catalog"
	httpserver "github.com/Ciriously/bookarchive/internal/http"
	"github.com/Ciriously/bookarchive/internal/store"
)

type sinkMock struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	name    string
	payload map[string]any
}

func (m *sinkMock) RecordEvent(ctx context.Context, name string, payload map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{name: name, payload: payload})
	return nil
}

func (m *sinkMock) Identify(ctx context.Context, p analytics.Profile) error { return nil }

func (m *sinkMock) recorded() []recordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recordedEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *sinkMock) waitFor(t *testing.T, name string) recordedEvent {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range m.recorded() {
			if ev.name == name {
				return ev
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("event %q was never recorded", name)
	return recordedEvent{}
}

type ShelvesMock struct {
	SubjectFunc       func(ctx context.Context, category string, offset int) ([]catalog.Book, error)
	WorkFunc          func(ctx context.Context, id string) (*catalog.Book, error)
	TrendingDailyFunc func(ctx context.Context) (*catalog.Book, error)
}

func (m *ShelvesMock) Subject(ctx context.Context, category string, offset int) ([]catalog.Book, error) {
	if m.SubjectFunc != nil {
		return m.SubjectFunc(ctx, category, offset)
	}
	return nil, nil
}

func (m *ShelvesMock) Work(ctx context.Context, id string) (*catalog.Book, error) {
	if m.WorkFunc != nil {
		return m.WorkFunc(ctx, id)
	}
	return nil, errors.New("not stubbed")
}

func (m *ShelvesMock) TrendingDaily(ctx context.Context) (*catalog.Book, error) {
	if m.TrendingDailyFunc != nil {
		return m.TrendingDailyFunc(ctx)
	}
	return nil, errors.New("not stubbed")
}

type SearchMock struct {
	SearchFunc func(ctx context.Context, query string, limit int) ([]catalog.Book, error)
}

func (m *SearchMock) Search(ctx context.Context, query string, limit int) ([]catalog.Book, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return nil, nil
}

type fixture struct {
	store   *store.Store
	sink    *sinkMock
	shelves *ShelvesMock
	search  *SearchMock
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sink := &sinkMock{}
	s := store.New(store.Config{Sink: sink, ToastTTL: time.Minute})
	shelves := &ShelvesMock{}
	search := &SearchMock{}
	logger := log.New(testWriter{t}, "", 0)

	handler := httpserver.NewRouter(httpserver.Deps{
		Logger:           logger,
		Store:            s,
		Shelves:          shelves,
		Search:           search,
		Sink:             sink,
		CORSAllowOrigins: []string{"*"},
	})
	return &fixture{store: s, sink: sink, shelves: shelves, search: search, handler: handler}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(bytes.TrimSpace(p)))
	return len(p), nil
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/session/login", map[string]string{
		"name": "Ada", "email": "a@x.com", "countryCode": "+1", "phone": "5551234",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestSessionEndpoints(t *testing.T) {
	t.Run("get session when logged out", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodGet, "/api/session", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("login then get session", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		w := f.do(t, http.MethodGet, "/api/session", nil)
		require.Equal(t, http.StatusOK, w.Code)

		session := decodeBody[store.Session](t, w)
		assert.Equal(t, "Ada", session.Name)
		assert.Equal(t, "+15551234", session.Phone)
		assert.Regexp(t, `^USER_\d+$`, session.Identity)
		assert.True(t, session.IsAuthenticated)
	})

	t.Run("login requires the form fields", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPost, "/api/session/login", map[string]string{"name": "Ada"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("logout clears session and cart", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		f.store.AddToCart(store.CartLine{ID: "b1", Title: "T", Quantity: 1})

		w := f.do(t, http.MethodPost, "/api/session/logout", nil)
		require.Equal(t, http.StatusOK, w.Code)

		assert.Nil(t, f.store.User())
		assert.Empty(t, f.store.Cart())
	})
}

func TestProfileEndpoints(t *testing.T) {
	t.Run("gated when logged out", func(t *testing.T) {
		f := newFixture(t)
		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/profile", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/api/profile", map[string]string{
			"name": "Ada", "email": "a@x.com", "phone": "1",
		}).Code)
	})

	t.Run("view fires Profile Viewed", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		w := f.do(t, http.MethodGet, "/api/profile", nil)
		require.Equal(t, http.StatusOK, w.Code)
		f.sink.waitFor(t, analytics.EventProfileViewed)
	})

	t.Run("update replaces session, fires event, shows toast", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		w := f.do(t, http.MethodPost, "/api/profile", map[string]string{
			"name": "Ada L.", "email": "ada@x.com", "countryCode": "+44", "phone": "700-900",
		})
		require.Equal(t, http.StatusOK, w.Code)

		u := f.store.User()
		require.NotNil(t, u)
		assert.Equal(t, "Ada L.", u.Name)
		assert.Equal(t, "+44700900", u.Phone)

		ev := f.sink.waitFor(t, analytics.EventProfileUpdated)
		assert.Equal(t, "Success", ev.payload["Status"])

		assert.Equal(t, "Member Profile Updated Successfully", f.store.ToastState().Message)
	})
}

func TestCartEndpoints(t *testing.T) {
	bookLine := map[string]any{
		"id": "b1", "title": "Dune", "price": 24.0, "coverUrl": "http://c/1", "quantity": 1,
	}

	t.Run("add item returns the cart and fires Added to Cart", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/cart/items", bookLine)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[map[string]any](t, w)
		items := resp["items"].([]any)
		require.Len(t, items, 1)
		assert.InDelta(t, 24.0, resp["totalAmount"].(float64), 0.0001)

		ev := f.sink.waitFor(t, analytics.EventAddedToCart)
		assert.Equal(t, "Dune", ev.payload["Product Name"])
	})

	t.Run("add rejects missing id", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("remove is silent for unknown ids", func(t *testing.T) {
		f := newFixture(t)
		f.do(t, http.MethodPost, "/api/cart/items", bookLine)

		w := f.do(t, http.MethodDelete, "/api/cart/items/unknown", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, f.store.Cart(), 1)
	})

	t.Run("clear empties the cart", func(t *testing.T) {
		f := newFixture(t)
		f.do(t, http.MethodPost, "/api/cart/items", bookLine)

		w := f.do(t, http.MethodPost, "/api/cart/clear", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, f.store.Cart())
	})

	t.Run("checkout requires login", func(t *testing.T) {
		f := newFixture(t)
		f.do(t, http.MethodPost, "/api/cart/items", bookLine)

		w := f.do(t, http.MethodPost, "/api/cart/checkout", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Len(t, f.store.Cart(), 1, "cart untouched")
	})

	t.Run("checkout rejects an empty cart", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		w := f.do(t, http.MethodPost, "/api/cart/checkout", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("checkout fires Charged and clears the cart", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		f.do(t, http.MethodPost, "/api/cart/items", bookLine)
		f.do(t, http.MethodPost, "/api/cart/items", bookLine) // quantity 2

		w := f.do(t, http.MethodPost, "/api/cart/checkout", nil)
		require.Equal(t, http.StatusOK, w.Code)

		ev := f.sink.waitFor(t, analytics.EventCharged)
		assert.InDelta(t, 48.0, ev.payload["Amount"].(float64), 0.0001)
		assert.Equal(t, "Credit Card", ev.payload["Payment mode"])
		items := ev.payload["Items"].([]map[string]any)
		require.Len(t, items, 1)
		assert.Equal(t, "Dune", items[0]["Book name"])
		assert.Equal(t, 2, items[0]["Quantity"])

		assert.Empty(t, f.store.Cart())
	})
}

func TestShelfEndpoint(t *testing.T) {
	t.Run("serves books and fires Category Viewed with Guest", func(t *testing.T) {
		f := newFixture(t)
		f.shelves.SubjectFunc = func(ctx context.Context, category string, offset int) ([]catalog.Book, error) {
			assert.Equal(t, "Design", category)
			assert.GreaterOrEqual(t, offset, 0)
			assert.Less(t, offset, 40)
			return []catalog.Book{{ID: "OL1W", Title: "Grid Systems"}}, nil
		}

		w := f.do(t, http.MethodGet, "/api/shop/Design", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[map[string]any](t, w)
		assert.Len(t, resp["books"].([]any), 1)

		ev := f.sink.waitFor(t, analytics.EventCategoryViewed)
		assert.Equal(t, "Design", ev.payload["Category Name"])
		assert.Equal(t, "Guest", ev.payload["User"])
	})

	t.Run("logged-in viewer is reported by email", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		f.do(t, http.MethodGet, "/api/shop/Design", nil)

		ev := f.sink.waitFor(t, analytics.EventCategoryViewed)
		assert.Equal(t, "a@x.com", ev.payload["User"])
	})

	t.Run("fetch failure degrades to an empty shelf", func(t *testing.T) {
		f := newFixture(t)
		f.shelves.SubjectFunc = func(ctx context.Context, category string, offset int) ([]catalog.Book, error) {
			return nil, errors.New("upstream down")
		}

		w := f.do(t, http.MethodGet, "/api/shop/Design", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[map[string]any](t, w)
		assert.Empty(t, resp["books"].([]any))
	})
}

func TestBookEndpoints(t *testing.T) {
	t.Run("detail success", func(t *testing.T) {
		f := newFixture(t)
		f.shelves.WorkFunc = func(ctx context.Context, id string) (*catalog.Book, error) {
			return &catalog.Book{ID: id, Title: "Dune", Author: "Frank Herbert"}, nil
		}

		w := f.do(t, http.MethodGet, "/api/books/OL1W", nil)
		require.Equal(t, http.StatusOK, w.Code)
		book := decodeBody[catalog.Book](t, w)
		assert.Equal(t, "OL1W", book.ID)
	})

	t.Run("detail failure is 404", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodGet, "/api/books/OL1W", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("hero", func(t *testing.T) {
		f := newFixture(t)
		f.shelves.TrendingDailyFunc = func(ctx context.Context) (*catalog.Book, error) {
			return &catalog.Book{ID: "OL9W", Title: "Dune"}, nil
		}

		w := f.do(t, http.MethodGet, "/api/home/hero", nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("buy now requires login and never touches the cart", func(t *testing.T) {
		f := newFixture(t)
		body := map[string]any{"id": "OL9W", "title": "Dune", "price": 19.0}

		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/api/home/buy", body).Code)

		f.login(t)
		w := f.do(t, http.MethodPost, "/api/home/buy", body)
		require.Equal(t, http.StatusOK, w.Code)

		ev := f.sink.waitFor(t, analytics.EventCharged)
		id, ok := ev.payload["Charged ID"].(int)
		require.True(t, ok)
		assert.GreaterOrEqual(t, id, 10000000)
		assert.Less(t, id, 100000000)

		assert.Empty(t, f.store.Cart())
	})
}

func TestSearchEndpoint(t *testing.T) {
	f := newFixture(t)
	f.search.SearchFunc = func(ctx context.Context, query string, limit int) ([]catalog.Book, error) {
		assert.Equal(t, "dune", query)
		return []catalog.Book{{ID: "g1", Title: "Dune"}}, nil
	}

	w := f.do(t, http.MethodGet, "/api/search?q=dune", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[map[string]any](t, w)
	assert.Len(t, resp["books"].([]any), 1)
}

func TestToastEndpoints(t *testing.T) {
	f := newFixture(t)
	f.store.ShowToast("hello")

	w := f.do(t, http.MethodGet, "/api/toast", nil)
	require.Equal(t, http.StatusOK, w.Code)
	toast := decodeBody[store.Toast](t, w)
	assert.True(t, toast.Visible)
	assert.Equal(t, "hello", toast.Message)

	w = f.do(t, http.MethodPost, "/api/toast/dismiss", nil)
	require.Equal(t, http.StatusOK, w.Code)
	toast = decodeBody[store.Toast](t, w)
	assert.False(t, toast.Visible)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[map[string]string](t, w)
	assert.Equal(t, "ok", resp["status"])
}
