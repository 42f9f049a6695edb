package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// randomDuration returns a uniformly distributed duration in [min, max].
func randomDuration(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// readPage scrolls down in a few small steps with pauses, the way a person
// skims a results page. Lazy-loaded tiles render along the way.
func readPage(ctx context.Context, page playwright.Page, rng *rand.Rand, steps int) error {
	for i := 0; i < steps; i++ {
		offset := 100 + rng.Intn(201)
		if _, err := page.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", offset)); err != nil {
			return err
		}
		if err := sleep(ctx, randomDuration(rng, time.Second, 2*time.Second)); err != nil {
			return err
		}
	}
	return nil
}
