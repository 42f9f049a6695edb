package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

// Screenshotter saves full-page screenshots for pages that did not load as expected.
type Screenshotter struct {
	dir    string
	logger zerolog.Logger
}

func NewScreenshotter(dir string, logger zerolog.Logger) *Screenshotter {
	return &Screenshotter{dir: dir, logger: logger}
}

func (s *Screenshotter) Capture(page playwright.Page, name string) (string, error) {
	if s == nil || s.dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s_%s.png", name, time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.dir, filename)
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.logger.Warn().Err(err).Str("name", name).Msg("screenshot failed")
		return "", err
	}

	s.logger.Info().Str("path", path).Msg("screenshot saved")
	return path, nil
}
