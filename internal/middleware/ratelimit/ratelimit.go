package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter counts requests per client in fixed windows.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
	hits    atomic.Int64

	done     chan struct{}
	stopped  sync.WaitGroup
	stopOnce sync.Once
}

type window struct {
	start time.Time
	seen  time.Time
	count int
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	// Window defaults to one minute.
	Window          time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		Window:            time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter starts a limiter and its sweeper. Call Stop to release it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	rl := &Limiter{
		limit:   cfg.RequestsPerMinute,
		window:  cfg.Window,
		now:     time.Now,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
	rl.stopped.Add(1)
	go rl.sweep(cfg.CleanupInterval)
	return rl
}

// take records a request from client and reports whether it fits the window,
// with the time left until the window resets.
func (rl *Limiter) take(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[client]
	if !ok || now.Sub(w.start) >= rl.window {
		w = &window{start: now}
		rl.windows[client] = w
	}
	w.count++
	w.seen = now

	left := rl.window - now.Sub(w.start)
	if w.count > rl.limit {
		rl.hits.Add(1)
		return false, left
	}
	return true, left
}

func (rl *Limiter) Allow(client string) bool {
	ok, _ := rl.take(client)
	return ok
}

// RetryAfter is the number of whole seconds until client's window resets.
func (rl *Limiter) RetryAfter(client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[client]
	if !ok {
		return 0
	}
	return seconds(rl.window - rl.now().Sub(w.start))
}

func seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func (rl *Limiter) sweep(every time.Duration) {
	defer rl.stopped.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.done:
			return
		}
	}
}

// cleanupStaleEntries drops clients idle for two windows.
func (rl *Limiter) cleanupStaleEntries() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * rl.window)
	n := 0
	for client, w := range rl.windows {
		if w.seen.Before(cutoff) {
			delete(rl.windows, client)
			n++
		}
	}
	return n
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Stop ends the sweeper and waits for it. Safe to call twice.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
	rl.stopped.Wait()
}

type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   rl.hits.Load(),
		ClientCount: int64(rl.ActiveClients()),
	}
}

// Middleware rejects requests over the limit with Retry-After set. A nil
// onLimit writes a plain 429.
func (rl *Limiter) Middleware(clientOf func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, left := rl.take(clientOf(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds(left), 1)))
			if onLimit == nil {
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}
