package browser

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jimezsa/upjobs/internal/scraper"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	data := `[
  {"name": "session", "value": "abc", "domain": ".upwork.com", "path": "/", "expires": 1893456000, "httpOnly": true, "secure": true, "sameSite": "Lax"},
  {"name": "visitor", "value": "1", "domain": "www.upwork.com", "sameSite": "no_restriction"},
  {"name": "", "value": "dropped", "domain": ".upwork.com"}
]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, ".upwork.com", *cookies[0].Domain)
	assert.Equal(t, 1893456000.0, *cookies[0].Expires)
	assert.True(t, *cookies[0].HttpOnly)
	assert.Equal(t, playwright.SameSiteAttributeLax, cookies[0].SameSite)

	assert.Equal(t, "/", *cookies[1].Path)
	assert.Nil(t, cookies[1].Expires)
	assert.Equal(t, playwright.SameSiteAttributeNone, cookies[1].SameSite)
}

func TestLoadCookiesMissingFile(t *testing.T) {
	cookies, err := LoadCookies(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, cookies)

	cookies, err = LoadCookies("")
	require.NoError(t, err)
	assert.Empty(t, cookies)
}

func TestRandomDuration(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		d := randomDuration(rng, 3*time.Second, 5*time.Second)
		assert.GreaterOrEqual(t, d, 3*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}
	assert.Equal(t, time.Second, randomDuration(rng, time.Second, time.Second))
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLaunchArgs(t *testing.T) {
	args := launchArgs(Options{UserDataDir: "/tmp/profile", ProfileDirectory: "Default"})
	assert.Contains(t, args, "--disable-blink-features=AutomationControlled")
	assert.Contains(t, args, "--profile-directory=Default")

	args = launchArgs(Options{ProfileDirectory: "Default"})
	assert.NotContains(t, args, "--profile-directory=Default")
}

// Drives a real Chromium against routed HTML. Needs `playwright install chromium`.
func TestSessionAgainstRoutedPage(t *testing.T) {
	if os.Getenv("UPJOBS_BROWSER_TESTS") == "" {
		t.Skip("set UPJOBS_BROWSER_TESTS=1 to run browser tests")
	}

	session, err := Launch(Options{Headless: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer session.Close()

	pages := map[string]string{
		"/jobs?page=1": `<html><body><article data-test="JobTile"><h2 class="job-tile-title"><a href="/jobs/~1">One</a></h2></article></body></html>`,
		"/jobs?page=2": `<html><title>Just a moment...</title><body>challenge</body></html>`,
	}
	require.NoError(t, session.Page().Route("**/*", func(route playwright.Route) {
		body := pages["/jobs?page=1"]
		if req := route.Request(); req != nil && filepath.Base(req.URL()) == "jobs?page=2" {
			body = pages["/jobs?page=2"]
		}
		_ = route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        body,
		})
	}))

	ctx := context.Background()
	selector := `article[data-test="JobTile"]`

	require.NoError(t, session.Navigate(ctx, "https://example.test/jobs?page=1"))
	require.NoError(t, session.WaitListings(ctx, selector, 2*time.Second))
	doc, err := session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find(selector).Length())

	require.NoError(t, session.Navigate(ctx, "https://example.test/jobs?page=2"))
	err = session.WaitListings(ctx, selector, 500*time.Millisecond)
	assert.True(t, errors.Is(err, scraper.ErrListingsTimeout), "got %v", err)
}
