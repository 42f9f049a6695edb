package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jimezsa/upjobs/internal/ui"
	"github.com/rs/zerolog"
)

// ErrInterventionExhausted is returned by a Waiter once no more re-checks
// are allowed for a page.
var ErrInterventionExhausted = errors.New("manual intervention attempts exhausted")

// Waiter blocks until a page whose listings did not load may be checked
// again. attempt starts at 1 for each page.
type Waiter interface {
	Await(ctx context.Context, page int, attempt int) error
}

// PromptWaiter asks the operator to fix the page in the browser window
// (log in, solve a challenge) and press Enter.
type PromptWaiter struct {
	UI          *ui.UI
	In          io.Reader
	MaxAttempts int
}

func NewPromptWaiter(u *ui.UI, in io.Reader) *PromptWaiter {
	return &PromptWaiter{UI: u, In: in, MaxAttempts: 1}
}

func (w *PromptWaiter) Await(ctx context.Context, page int, attempt int) error {
	if attempt > w.MaxAttempts {
		return ErrInterventionExhausted
	}
	w.UI.Warnf("Job listings did not load on page %d. The page may need a login or a verification check.", page)
	return w.UI.WaitForEnter(ctx, w.In, "Resolve it in the browser window, then press Enter to continue...")
}

const maxBackoff = 5 * time.Minute

// BackoffWaiter waits Base, 2*Base, 4*Base, ... between re-checks, for
// runs without an operator.
type BackoffWaiter struct {
	Base        time.Duration
	MaxAttempts int
	Logger      zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewBackoffWaiter(base time.Duration, maxAttempts int, logger zerolog.Logger) *BackoffWaiter {
	return &BackoffWaiter{
		Base:        base,
		MaxAttempts: maxAttempts,
		Logger:      logger,
		sleep:       sleepContext,
	}
}

func (w *BackoffWaiter) Await(ctx context.Context, page int, attempt int) error {
	if attempt > w.MaxAttempts {
		return fmt.Errorf("%w after %d retries", ErrInterventionExhausted, w.MaxAttempts)
	}
	delay := w.Delay(attempt)
	w.Logger.Warn().
		Int("page", page).
		Int("attempt", attempt).
		Dur("delay", delay).
		Msg("listings not loaded, retrying")
	return w.sleep(ctx, delay)
}

// Delay returns the backoff for the given 1-based attempt.
func (w *BackoffWaiter) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := w.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
