package worker

import (
	"context"
	"sync"
	"time"

	"roro/internal/logger"

	"go.uber.org/zap"
)

// ticker runs job immediately and then every interval until stopped. Each run
// gets its own timeout; Stop cancels an in-flight run and waits for it.
type ticker struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	job      func(ctx context.Context) error

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	log     *zap.SugaredLogger
}

func newTicker(name string, interval, timeout time.Duration, job func(ctx context.Context) error) *ticker {
	return &ticker{
		name:     name,
		interval: interval,
		timeout:  timeout,
		job:      job,
		log:      logger.GetLogger("worker." + name),
	}
}

func (t *ticker) Name() string { return t.name }

func (t *ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	t.running = true
	t.log.Infow("worker started", "interval", t.interval)

	go t.run(ctx, t.done)
}

func (t *ticker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.cancel()
	done := t.done
	t.mu.Unlock()

	<-done
	t.log.Info("worker stopped")
}

func (t *ticker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	// Первый запуск сразу
	t.runOnce(ctx)

	for {
		select {
		case <-tk.C:
			t.runOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (t *ticker) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, t.timeout)
	defer cancel()

	start := time.Now()
	if err := t.job(ctx); err != nil {
		t.log.Errorw("worker run failed", "error", err)
		return
	}
	t.log.Debugw("worker run completed", "duration", time.Since(start))
}
