// file: internals/features/finance/payments/scheduler/sweeper.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sweeper = subset SweepService yang dijalankan berkala.
type Sweeper interface {
	ExpireStale(ctx context.Context, now time.Time) (int, error)
	AssessLateFees(ctx context.Context, asOf time.Time) (int, error)
}

type Intervals struct {
	Expiry  time.Duration
	LateFee time.Duration
}

// Start menjalankan expiry sweep dan late-fee sweep di goroutine masing-masing.
// Berhenti saat ctx dibatalkan; done ditutup setelah kedua loop keluar.
func Start(ctx context.Context, s Sweeper, iv Intervals, log *zap.SugaredLogger) (done <-chan struct{}) {
	if iv.Expiry <= 0 {
		iv.Expiry = 15 * time.Minute
	}
	if iv.LateFee <= 0 {
		iv.LateFee = 24 * time.Hour
	}

	out := make(chan struct{})
	finished := make(chan struct{}, 2)

	go loop(ctx, "expiry", iv.Expiry, log, finished, func(ctx context.Context, now time.Time) (int, error) {
		return s.ExpireStale(ctx, now)
	})
	go loop(ctx, "late_fee", iv.LateFee, log, finished, func(ctx context.Context, now time.Time) (int, error) {
		return s.AssessLateFees(ctx, now)
	})

	go func() {
		<-finished
		<-finished
		close(out)
	}()
	return out
}

func loop(ctx context.Context, name string, every time.Duration, log *zap.SugaredLogger, finished chan<- struct{}, run func(context.Context, time.Time) (int, error)) {
	defer func() { finished <- struct{}{} }()

	t := time.NewTicker(every)
	defer t.Stop()

	log.Infow("[SWEEP] started", "sweep", name, "every", every)
	for {
		select {
		case <-ctx.Done():
			log.Infow("[SWEEP] stopped", "sweep", name)
			return
		case now := <-t.C:
			n, err := tick(ctx, name, now, log, run)
			if err != nil {
				log.Warnw("[SWEEP] gagal", "sweep", name, "error", err)
				continue
			}
			log.Debugw("[SWEEP] selesai", "sweep", name, "affected", n)
		}
	}
}

// tick menjalankan satu putaran; panic hanya menggagalkan putaran ini, loop tetap jalan.
func tick(ctx context.Context, name string, now time.Time, log *zap.SugaredLogger, run func(context.Context, time.Time) (int, error)) (n int, err error) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("[SWEEP] panic", "sweep", name, "panic", r)
			err = fmt.Errorf("sweep %s panic: %v", name, r)
		}
	}()
	return run(runCtx, now)
}
