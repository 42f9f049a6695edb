package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jimezsa/upjobs/internal/ui"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffWaiterDoubles(t *testing.T) {
	w := NewBackoffWaiter(10*time.Second, 3, zerolog.Nop())
	var slept []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	for attempt := 1; attempt <= 3; attempt++ {
		require.NoError(t, w.Await(context.Background(), 1, attempt))
	}
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second}, slept)

	err := w.Await(context.Background(), 1, 4)
	assert.True(t, errors.Is(err, ErrInterventionExhausted))
	assert.Len(t, slept, 3)
}

func TestBackoffWaiterCapsDelay(t *testing.T) {
	w := NewBackoffWaiter(time.Minute, 20, zerolog.Nop())
	assert.Equal(t, maxBackoff, w.Delay(10))
	assert.Equal(t, time.Minute, w.Delay(0))
}

func TestPromptWaiterAllowsOneRecheck(t *testing.T) {
	var errOut bytes.Buffer
	u := ui.New(io.Discard, &errOut, ui.ColorNever, false)
	w := NewPromptWaiter(u, strings.NewReader("\n\n"))

	require.NoError(t, w.Await(context.Background(), 4, 1))
	assert.Contains(t, errOut.String(), "page 4")
	assert.Contains(t, errOut.String(), "press Enter")

	assert.ErrorIs(t, w.Await(context.Background(), 4, 2), ErrInterventionExhausted)
}

func TestPacerUsesConfiguredRanges(t *testing.T) {
	p := NewPacer(8*time.Second, 15*time.Second, 3*time.Second, 5*time.Second)
	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	for i := 0; i < 50; i++ {
		require.NoError(t, p.BetweenPages(context.Background()))
		require.NoError(t, p.Settle(context.Background()))
	}
	for i, d := range slept {
		if i%2 == 0 {
			assert.GreaterOrEqual(t, d, 8*time.Second)
			assert.LessOrEqual(t, d, 15*time.Second)
		} else {
			assert.GreaterOrEqual(t, d, 3*time.Second)
			assert.LessOrEqual(t, d, 5*time.Second)
		}
	}
}

func TestNilPacerHonoursContext(t *testing.T) {
	var p *Pacer
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Settle(ctx))
	cancel()
	assert.ErrorIs(t, p.BetweenPages(ctx), context.Canceled)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "AWAITING_MANUAL_INTERVENTION", StateAwaitingIntervention.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}
