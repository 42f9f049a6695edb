package session

import (
	"context"
	"math/rand"
	"time"
)

const (
	DefaultPageDelayMin   = 8 * time.Second
	DefaultPageDelayMax   = 15 * time.Second
	DefaultSettleDelayMin = 3 * time.Second
	DefaultSettleDelayMax = 5 * time.Second
)

// Pacer spaces out page loads with random delays. A nil Pacer never sleeps.
type Pacer struct {
	PageMin   time.Duration
	PageMax   time.Duration
	SettleMin time.Duration
	SettleMax time.Duration

	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPacer(pageMin, pageMax, settleMin, settleMax time.Duration) *Pacer {
	return &Pacer{
		PageMin:   pageMin,
		PageMax:   pageMax,
		SettleMin: settleMin,
		SettleMax: settleMax,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:     sleepContext,
	}
}

func DefaultPacer() *Pacer {
	return NewPacer(DefaultPageDelayMin, DefaultPageDelayMax, DefaultSettleDelayMin, DefaultSettleDelayMax)
}

// BetweenPages sleeps before every page after the first.
func (p *Pacer) BetweenPages(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.sleep(ctx, p.pick(p.PageMin, p.PageMax))
}

// Settle sleeps after a navigation so the page can finish rendering.
func (p *Pacer) Settle(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.sleep(ctx, p.pick(p.SettleMin, p.SettleMax))
}

func (p *Pacer) pick(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(p.rng.Int63n(int64(max-min)+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
