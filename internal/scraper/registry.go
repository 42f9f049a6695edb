package scraper

import (
	"fmt"
	"strings"
)

const (
	SourceBrowser = "browser"
	SourceHTTP    = "http"
)

func NormalizeSource(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", SourceBrowser, "playwright", "chrome", "chromium":
		return SourceBrowser, nil
	case SourceHTTP, "https", "direct":
		return SourceHTTP, nil
	default:
		return "", fmt.Errorf("unknown source: %s", name)
	}
}
