// Package sender runs outbound Bot API calls off the update goroutine while
// keeping the calls for one chat in submission order.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/airdropbot/core/logger"
	"github.com/m3rciful/airdropbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the shard for a key has no free slot.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenPattern = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options tune the dispatcher. Zero values select defaults.
type Options struct {
	// Shards is the number of ordered worker queues.
	Shards int
	// QueueSize bounds each shard's backlog.
	QueueSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on one job including retries.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.Shards <= 0 {
		o.Shards = 4
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes jobs on a fixed set of shards. Jobs sharing a key
// always land on the same shard and run one after another.
type Dispatcher struct {
	opts   Options
	shards []chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	failed atomic.Uint64
}

// NewDispatcher starts the shard workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, shards: make([]chan job, opts.Shards)}
	d.wg.Add(opts.Shards)
	for i := range d.shards {
		d.shards[i] = make(chan job, opts.QueueSize)
		go d.work(d.shards[i])
	}
	return d
}

func (d *Dispatcher) shard(key int64) chan job {
	if key < 0 {
		key = -key
	}
	return d.shards[key%int64(len(d.shards))]
}

// Enqueue schedules run on the shard owning key, usually a chat id.
// run may be invoked more than once when it fails with a transient error.
func (d *Dispatcher) Enqueue(ctx context.Context, key int64, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shard(key) <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Failures returns how many jobs ended in error.
func (d *Dispatcher) Failures() uint64 {
	return d.failed.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work(queue chan job) {
	defer d.wg.Done()
	for j := range queue {
		d.execute(j)
	}
}

func (d *Dispatcher) execute(j job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := 0
	err := netutil.Retry(ctx, d.opts.MaxRetries+1, d.opts.RetryBackoff, nil, func(context.Context) error {
		attempts++
		return j.run()
	})
	attrs := []slog.Attr{
		slog.String("action", j.action),
		slog.String("endpoint", j.endpoint),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		d.failed.Add(1)
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err", redact(err)),
			slog.String("err_kind", classify(err)),
		)
		logger.Error(j.ctx, component, "send.fail", attrs...)
		return
	}
	if attempts > 1 {
		logger.Info(j.ctx, component, "send.retry.success", attrs...)
		return
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(j.ctx, component, "send.ok", attrs...)
	}
}

// redact hides bot tokens that net/http embeds into request URLs.
func redact(err error) string {
	return tokenPattern.ReplaceAllString(err.Error(), "bot<redacted>")
}

func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if netutil.ShouldRetry(err) {
		return "network"
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return "http_429"
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return "http_429"
		case apiErr.Code >= 500:
			return "http_5xx"
		case apiErr.Code >= 400:
			return "http_4xx"
		}
	}
	return "unknown"
}
