package catalog

import (
	"context"
	"net/url"
	"strconv"
)

// GoogleBooks searches the Google Books volumes API. Same contract as the
// Open Library fetchers: zero or more Book records, no caching, no retries.
type GoogleBooks struct {
	c *Client
}

func NewGoogleBooks(c *Client) *GoogleBooks {
	return &GoogleBooks{c: c}
}

type volumeInfo struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description"`
	ImageLinks  struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

type volumesResponse struct {
	Items []struct {
		ID         string     `json:"id"`
		VolumeInfo volumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

func (gb *GoogleBooks) Search(ctx context.Context, query string, limit int) ([]Book, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 40 {
		limit = 20
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("maxResults", strconv.Itoa(limit))

	var resp volumesResponse
	if err := gb.c.getJSON(ctx, "/books/v1/volumes", q.Encode(), &resp); err != nil {
		return nil, err
	}

	books := make([]Book, 0, len(resp.Items))
	for _, item := range resp.Items {
		info := item.VolumeInfo
		if info.Title == "" || info.ImageLinks.Thumbnail == "" {
			continue
		}

		author := "Unknown"
		if len(info.Authors) > 0 {
			author = info.Authors[0]
		}

		books = append(books, Book{
			ID:          item.ID,
			Title:       info.Title,
			Author:      author,
			Description: info.Description,
			CoverURL:    info.ImageLinks.Thumbnail,
			Price:       Price(info.Title, searchPriceBase, searchPriceMod),
		})
	}
	return books, nil
}
