package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Port            string
	UpstreamTimeout time.Duration

	DBDSN     string
	RabbitURL string

	// Upstream catalog APIs. Overridable so tests and offline runs can
	// point at stubs.
	OpenLibraryURL string
	CoversURL      string
	GoogleBooksURL string

	// Marketing platform identifiers stamped onto every analytics envelope.
	AnalyticsAccountID string
	AnalyticsRegion    string

	ToastTTL time.Duration

	CORSAllowOrigins []string
}

func Load() Config {
	return Config{
		Port:            getenv("PORT", "8080"),
		UpstreamTimeout: parseDuration(getenv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),

		DBDSN:     os.Getenv("STOREFRONT_DB_DSN"),
		RabbitURL: os.Getenv("RABBITMQ_URL"),

		OpenLibraryURL: getenv("OPENLIBRARY_URL", "https://openlibrary.org"),
		CoversURL:      getenv("OPENLIBRARY_COVERS_URL", "https://covers.openlibrary.org"),
		GoogleBooksURL: getenv("GOOGLE_BOOKS_URL", "https://www.googleapis.com"),

		AnalyticsAccountID: os.Getenv("ANALYTICS_ACCOUNT_ID"),
		AnalyticsRegion:    getenv("ANALYTICS_REGION", "eu1"),

		ToastTTL: parseDuration(getenv("TOAST_TTL", "3s"), 3*time.Second),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
