package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Categories maps the storefront's shelf names to Open Library subjects.
var Categories = map[string]string{
	"Design":       "design",
	"Architecture": "architecture",
	"Technology":   "technology",
	"Philosophy":   "philosophy",
	"History":      "history",
	"Business":     "business",
	"Art":          "art_history",
}

// Titles or subjects carrying any of these are dropped from the shelves.
var nsfwKeywords = []string{
	"romance",
	"erotica",
	"passion",
	"desire",
	"lover",
	"seduction",
	"billionaire",
	"kiss",
}

const (
	shelfFetchLimit = 20
	shelfPageSize   = 15

	// shop picks a random offset so repeat visits see fresh shelves
	shelfOffsetSpread = 40
)

// OpenLibrary fetches books from the Open Library public API. No caching,
// no retries: a failed fetch is an error or an empty shelf, nothing more.
type OpenLibrary struct {
	c      *Client
	covers string
}

func NewOpenLibrary(c *Client, coversBaseURL string) *OpenLibrary {
	return &OpenLibrary{c: c, covers: strings.TrimSuffix(coversBaseURL, "/")}
}

// RandomShelfOffset returns an offset for Subject so shelves rotate.
func RandomShelfOffset() int {
	return rand.Intn(shelfOffsetSpread)
}

type subjectWork struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	CoverID  int      `json:"cover_id"`
	CoverI   int      `json:"cover_i"`
	Subjects []string `json:"subject"`
}

type subjectResponse struct {
	Works []subjectWork `json:"works"`
}

// Subject returns up to 15 safe, covered books for a shelf category.
// An unknown category yields an empty shelf, not an error.
func (ol *OpenLibrary) Subject(ctx context.Context, category string, offset int) ([]Book, error) {
	subject, ok := Categories[category]
	if !ok {
		return nil, nil
	}

	var resp subjectResponse
	query := "limit=" + strconv.Itoa(shelfFetchLimit) + "&offset=" + strconv.Itoa(offset)
	if err := ol.c.getJSON(ctx, "/subjects/"+subject+".json", query, &resp); err != nil {
		return nil, err
	}

	books := make([]Book, 0, len(resp.Works))
	for _, work := range resp.Works {
		if !isWorkSafe(work) {
			continue
		}
		coverID := work.CoverID
		if coverID == 0 {
			coverID = work.CoverI
		}
		if coverID == 0 {
			continue
		}

		author := "Unknown"
		if len(work.Authors) > 0 {
			author = work.Authors[0].Name
		}

		books = append(books, Book{
			ID:       strings.TrimPrefix(work.Key, "/works/"),
			Title:    work.Title,
			Author:   author,
			CoverURL: ol.coverURL(coverID),
			Price:    Price(work.Title, shopPriceBase, shopPriceMod),
		})
	}

	rand.Shuffle(len(books), func(i, j int) {
		books[i], books[j] = books[j], books[i]
	})
	if len(books) > shelfPageSize {
		books = books[:shelfPageSize]
	}
	return books, nil
}

type workResponse struct {
	Title       string          `json:"title"`
	Description json.RawMessage `json:"description"`
	Covers      []int           `json:"covers"`
	Authors     []struct {
		Author struct {
			Key string `json:"key"`
		} `json:"author"`
	} `json:"authors"`
}

type authorResponse struct {
	Name string `json:"name"`
}

// Work fetches one book's detail view, resolving the first author by a
// second API call.
func (ol *OpenLibrary) Work(ctx context.Context, id string) (*Book, error) {
	var work workResponse
	if err := ol.c.getJSON(ctx, "/works/"+id+".json", "", &work); err != nil {
		return nil, err
	}

	authorName := "Unknown Author"
	if len(work.Authors) > 0 {
		var author authorResponse
		key := work.Authors[0].Author.Key
		if err := ol.c.getJSON(ctx, key+".json", "", &author); err != nil {
			return nil, err
		}
		authorName = author.Name
	}

	coverID := 0
	if len(work.Covers) > 0 {
		coverID = work.Covers[0]
	}

	return &Book{
		ID:          id,
		Title:       work.Title,
		Author:      authorName,
		Description: decodeDescription(work.Description, "No description available for this masterpiece."),
		CoverURL:    ol.coverURL(coverID),
		Price:       Price(work.Title, detailPriceBase, detailPriceMod),
	}, nil
}

type trendingWork struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	CoverI      int      `json:"cover_i"`
	AuthorNames []string `json:"author_name"`
}

type trendingResponse struct {
	Works []trendingWork `json:"works"`
}

// TrendingDaily fetches the #1 trending work as the home hero, pulling its
// description from the work detail endpoint.
func (ol *OpenLibrary) TrendingDaily(ctx context.Context) (*Book, error) {
	var resp trendingResponse
	if err := ol.c.getJSON(ctx, "/trending/daily.json", "limit=1", &resp); err != nil {
		return nil, err
	}
	if len(resp.Works) == 0 {
		return nil, fmt.Errorf("openlibrary: no trending works")
	}
	work := resp.Works[0]

	var details workResponse
	if err := ol.c.getJSON(ctx, work.Key+".json", "", &details); err != nil {
		return nil, err
	}

	author := "Unknown Author"
	if len(work.AuthorNames) > 0 {
		author = work.AuthorNames[0]
	}

	desc := decodeDescription(details.Description, "No description available.")
	return &Book{
		ID:          strings.TrimPrefix(work.Key, "/works/"),
		Title:       work.Title,
		Author:      author,
		Description: truncate(desc, 150),
		CoverURL:    ol.coverURL(work.CoverI),
		Price:       Price(work.Title, heroPriceBase, heroPriceMod),
	}, nil
}

func (ol *OpenLibrary) coverURL(coverID int) string {
	return fmt.Sprintf("%s/b/id/%d-L.jpg", ol.covers, coverID)
}

// Open Library serves description as either a string or {"value": string}.
func decodeDescription(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Value != "" {
		return obj.Value
	}
	return fallback
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func isWorkSafe(work subjectWork) bool {
	title := strings.ToLower(work.Title)
	for _, word := range nsfwKeywords {
		if strings.Contains(title, word) {
			return false
		}
	}
	for _, subject := range work.Subjects {
		s := strings.ToLower(subject)
		if strings.Contains(s, "romance") || strings.Contains(s, "erotica") {
			return false
		}
	}
	return true
}
