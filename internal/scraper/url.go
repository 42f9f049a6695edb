package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BuildSearchURL adds the query and 1-based page number to the search
// endpoint, keeping any parameters already present on base.
func BuildSearchURL(base string, query string, page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("page must be >= 1, got %d", page)
	}
	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("search url must be absolute: %q", base)
	}

	values := parsed.Query()
	if query = strings.TrimSpace(query); query != "" {
		values.Set("q", query)
	}
	values.Set("page", strconv.Itoa(page))
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}
