package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"feedback-insights-go/internal/classifier"
	"feedback-insights-go/internal/types"
)

// Item is one unit of classification work: a row key and the text to classify.
type Item struct {
	Key  string
	Text string
}

// ClassifyFunc performs a single classification attempt. Errors must be
// classifier.TransientError or classifier.TerminalError.
type ClassifyFunc func(ctx context.Context, text string) (string, error)

type Config struct {
	MaxConcurrency     int
	MinInterval        time.Duration
	MaxAttempts        int
	BackoffBase        time.Duration
	BackoffCap         time.Duration
	AbortOnAuthFailure bool
}

// Dispatcher drives classify calls over a set of items with a concurrency
// ceiling, a global pacing floor, and retry with exponential backoff.
// Every input item gets exactly one terminal outcome.
type Dispatcher struct {
	cfg     Config
	log     *logrus.Entry
	pacer   *pacer
	aborted atomic.Bool

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		cfg:   cfg,
		log:   log,
		pacer: newPacer(cfg.MinInterval),
		now:   time.Now,
		sleep: realSleep,
	}
}

func realSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const abortedReason = "stage aborted: auth failure"

// Run processes all items and returns one outcome per item. Completion order
// is not meaningful; results form a map keyed by item key. A terminal auth
// failure with the abort policy enabled stops dispatch of not-yet-started
// items while in-flight calls finish and record their outcomes.
func (d *Dispatcher) Run(ctx context.Context, items []Item, classify ClassifyFunc) map[string]types.Outcome {
	results := make(map[string]types.Outcome, len(items))
	var mu sync.Mutex
	record := func(out types.Outcome) {
		mu.Lock()
		results[out.Key] = out
		mu.Unlock()
	}

	queue := make(chan Item)
	var wg sync.WaitGroup
	for i := 0; i < d.cfg.MaxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				// claimed after abort: never started, still gets an outcome
				if d.aborted.Load() {
					record(types.Outcome{Key: item.Key, State: types.StateFailedTerminal, Err: abortedReason})
					continue
				}
				record(d.process(ctx, item, classify))
			}
		}()
	}

feed:
	for i, item := range items {
		if d.aborted.Load() || ctx.Err() != nil {
			reason := abortedReason
			if ctx.Err() != nil {
				reason = "cancelled: " + ctx.Err().Error()
			}
			for _, rest := range items[i:] {
				record(types.Outcome{Key: rest.Key, State: types.StateFailedTerminal, Err: reason})
			}
			break
		}
		select {
		case queue <- item:
		case <-ctx.Done():
			for _, rest := range items[i:] {
				record(types.Outcome{Key: rest.Key, State: types.StateFailedTerminal, Err: "cancelled: " + ctx.Err().Error()})
			}
			break feed
		}
	}
	close(queue)
	wg.Wait()

	return results
}

// process owns one item end to end: pacing, the call, and its retries.
// The item stays claimed by one worker, so its outcome has a single writer.
func (d *Dispatcher) process(ctx context.Context, item Item, classify ClassifyFunc) types.Outcome {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.cfg.BackoffBase
	bo.MaxInterval = d.cfg.BackoffCap
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0
	bo.Reset()

	out := types.Outcome{Key: item.Key, State: types.StateInFlight}
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		out.Attempts = attempt

		if err := d.sleep(ctx, d.pacer.reserve(d.now())); err != nil {
			out.State = types.StateFailedTerminal
			out.Err = "cancelled: " + err.Error()
			return out
		}

		label, err := classify(ctx, item.Text)
		if err == nil {
			out.State = types.StateSucceeded
			out.Label = label
			out.Err = ""
			return out
		}
		out.Err = err.Error()

		if classifier.IsTerminal(err) {
			out.State = types.StateFailedTerminal
			if d.cfg.AbortOnAuthFailure && classifier.IsAuthFailure(err) {
				d.aborted.Store(true)
				d.log.WithField("key", item.Key).Warn("auth failure, aborting remaining dispatch")
			}
			d.log.WithField("key", item.Key).WithField("error", out.Err).Warn("terminal classify failure")
			return out
		}

		out.State = types.StateFailedRetryable
		d.log.WithField("key", item.Key).
			WithField("attempt", attempt).
			WithField("error", out.Err).
			Debug("transient classify failure")
		if attempt == d.cfg.MaxAttempts {
			break
		}
		if err := d.sleep(ctx, bo.NextBackOff()); err != nil {
			out.State = types.StateFailedTerminal
			out.Err = "cancelled: " + err.Error()
			return out
		}
	}

	// retries exhausted: demote to terminal
	out.State = types.StateFailedTerminal
	out.Err = "attempts exhausted: " + out.Err
	return out
}

// Aborted reports whether the auth-failure abort policy fired during Run.
func (d *Dispatcher) Aborted() bool {
	return d.aborted.Load()
}
