package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/semaphore"

	"github.com/coursegen/coursegen-api/internal/domain"
	"github.com/coursegen/coursegen-api/internal/events"
	"github.com/coursegen/coursegen-api/internal/generation"
)

// Config holds the scheduler knobs for one batch.
type Config struct {
	// MaxConcurrent bounds the number of outstanding generation calls. It
	// does not bound goroutines: a day waiting out a retry delay holds no
	// slot. Values below 1 behave as 1.
	MaxConcurrent int

	// Policy decides per-day retries.
	Policy RetryPolicy
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 3,
		Policy:        DefaultRetryPolicy(),
	}
}

// Progress is a point-in-time snapshot of batch progress.
type Progress struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
	Status    string  `json:"status"`
}

// dayResult is the terminal outcome of one day's task, reported back to the
// collector. Exactly one is sent per launched day.
type dayResult struct {
	day      int
	attempts int
	plan     *domain.DayPlan
	err      error
}

// Batch drives the generation of one curriculum. A Batch serves exactly one
// Run call; Batch State lives for the duration of that call and is owned by
// the collector loop inside it.
type Batch struct {
	id        uuid.UUID
	generator generation.DayGenerator
	config    Config
	logger    *slog.Logger
	emitter   events.Emitter
	registry  *Registry

	mu        sync.Mutex
	progress  Progress
	cancelled bool
	runCancel context.CancelFunc
}

// NewBatch creates a Batch for one generation request. The emitter may be nil
// when no one observes lifecycle events.
func NewBatch(generator generation.DayGenerator, config Config, logger *slog.Logger, emitter events.Emitter) (*Batch, error) {
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}

	id := uuid.New()
	return &Batch{
		id:        id,
		generator: generator,
		config:    config,
		logger:    logger.With("component", "scheduler", "batch_id", id),
		emitter:   emitter,
		registry:  NewRegistry(),
	}, nil
}

// ID returns the batch's unique identifier.
func (b *Batch) ID() uuid.UUID {
	return b.id
}

// Progress returns a snapshot of the batch's progress. Safe to call from any
// goroutine at any time, including after Run returned.
func (b *Batch) Progress() Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progress
}

// Cancel stops the batch: no new generation calls are issued, every in-flight
// call is signalled to stop, pending retries are suppressed, and Run resolves
// with ErrCancelled. Callable at any time, from any goroutine, repeatedly;
// repeat calls are no-ops.
func (b *Batch) Cancel() {
	b.mu.Lock()
	if b.cancelled {
		b.mu.Unlock()
		return
	}
	b.cancelled = true
	cancel := b.runCancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.registry.CancelAll()
	b.logger.Info("batch cancelled")
}

// Run generates every day 1..req.TotalDays and returns the assembled plans in
// strict ascending day order. On failure it returns either *AggregateError
// naming the days that exhausted their retries, or ErrCancelled when the
// batch was stopped via Cancel or the caller's context.
func (b *Batch) Run(ctx context.Context, req domain.GenerationRequest) ([]domain.DayPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	n := req.TotalDays

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.mu.Lock()
	b.runCancel = cancel
	alreadyCancelled := b.cancelled
	b.progress = Progress{Total: n, Status: "starting"}
	b.mu.Unlock()

	if alreadyCancelled {
		return nil, ErrCancelled
	}

	b.logger.Info("starting batch", "topic", req.Topic, "total_days", n)

	sem := semaphore.NewWeighted(int64(b.config.MaxConcurrent))
	results := make(chan dayResult)

	// The counter covers all n days up front so it cannot hit zero while
	// days are still unlaunched; the launcher settles the counts of days it
	// never starts.
	var wg sync.WaitGroup
	wg.Add(n)

	// Launcher: claim days in ascending order. Acquiring the slot here,
	// before the task goroutine starts, keeps claim order strict and the
	// outstanding-call count within the ceiling.
	go func() {
		for day := 1; day <= n; day++ {
			if err := sem.Acquire(runCtx, 1); err != nil {
				for ; day <= n; day++ {
					wg.Done()
				}
				return
			}
			b.setStatus(runCtx, 0, fmt.Sprintf("Generating day %d of %d", day, n))
			go b.runDay(runCtx, req, day, sem, results, &wg)
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collector: exclusive owner of Batch State.
	completed := make(map[int]domain.DayPlan, n)
	var failedDays []int

	for res := range results {
		switch {
		case res.err == nil:
			completed[res.day] = *res.plan
			b.setStatus(runCtx, len(completed), fmt.Sprintf("Completed day %d of %d", res.day, n))
			b.emitDayCompleted(runCtx, res.plan)
			b.logger.Info("day completed", "day", res.day, "attempts", res.attempts)

		case errors.Is(res.err, context.Canceled):
			b.logger.Debug("day aborted by cancellation", "day", res.day)

		default:
			failedDays = append(failedDays, res.day)
			b.setStatus(runCtx, len(completed), fmt.Sprintf("Day %d failed", res.day))
			b.logger.Error("day failed permanently",
				"day", res.day,
				"attempts", res.attempts,
				"error", res.err)
		}
	}

	if runCtx.Err() != nil {
		b.setStatus(context.Background(), len(completed), "Cancelled")
		b.emitTerminal(events.TypeBatchCancelled, map[string]any{"completed": len(completed)})
		return nil, ErrCancelled
	}

	// A day that resolved with a cancellation error while the batch itself
	// kept running still counts as failed; the assembled plan admits no gaps.
	for day := 1; day <= n; day++ {
		if _, ok := completed[day]; !ok {
			failedDays = appendMissing(failedDays, day)
		}
	}

	if len(failedDays) > 0 {
		sort.Ints(failedDays)
		b.setStatus(runCtx, len(completed), fmt.Sprintf("Failed: %d day(s) could not be generated", len(failedDays)))
		aggErr := &AggregateError{FailedDays: failedDays}
		b.emitTerminal(events.TypeBatchFailed, map[string]any{"failed_days": failedDays})
		return nil, aggErr
	}

	days := make([]domain.DayPlan, 0, n)
	for day := 1; day <= n; day++ {
		days = append(days, completed[day])
	}

	b.setStatus(runCtx, n, "Done")
	b.emitTerminal(events.TypeBatchDone, map[string]any{"total_days": n})
	b.logger.Info("batch completed", "total_days", n)

	return days, nil
}

// runDay is one day's task: attempt the generation call under the retry
// policy and report exactly one terminal result. The first attempt runs on
// the slot the launcher acquired; each re-attempt acquires its own slot after
// the backoff wait, so a pending retry never occupies one.
func (b *Batch) runDay(
	ctx context.Context,
	req domain.GenerationRequest,
	day int,
	sem *semaphore.Weighted,
	results chan<- dayResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	attempts := 0
	holdingSlot := true
	var plan *domain.DayPlan

	err := retry.Do(ctx, b.config.Policy.Backoff(), func(ctx context.Context) error {
		if !holdingSlot {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
		}
		holdingSlot = false
		defer sem.Release(1)

		attempts++

		// Fresh cancellation handle per call, never reused across retries.
		callCtx, cancelCall := context.WithCancel(ctx)
		defer cancelCall()
		b.registry.Register(day, cancelCall)
		defer b.registry.Unregister(day)

		p, err := b.generator.GenerateDay(callCtx, req, day)
		if err != nil {
			return b.config.Policy.Classify(err)
		}

		if p.Day != day {
			return b.config.Policy.Classify(
				fmt.Errorf("%w: requested day %d, got day %d", generation.ErrIndexMismatch, day, p.Day))
		}

		plan = p
		return nil
	})

	results <- dayResult{day: day, attempts: attempts, plan: plan, err: err}
}

// appendMissing adds day to days unless already present.
func appendMissing(days []int, day int) []int {
	for _, d := range days {
		if d == day {
			return days
		}
	}
	return append(days, day)
}

// setStatus records a progress transition and publishes it.
func (b *Batch) setStatus(ctx context.Context, completed int, status string) {
	b.mu.Lock()
	if completed > b.progress.Completed {
		b.progress.Completed = completed
	}
	if b.progress.Total > 0 {
		b.progress.Fraction = float64(b.progress.Completed) / float64(b.progress.Total)
	}
	b.progress.Status = status
	snapshot := b.progress
	b.mu.Unlock()

	b.emit(ctx, events.TypeBatchProgress, snapshot)
}

// emitDayCompleted publishes a completed day plan to event handlers.
func (b *Batch) emitDayCompleted(ctx context.Context, plan *domain.DayPlan) {
	b.emit(ctx, events.TypeDayCompleted, plan)
}

// emitTerminal publishes a terminal transition outside the run context, which
// may already be cancelled.
func (b *Batch) emitTerminal(eventType string, payload any) {
	b.emit(context.Background(), eventType, payload)
}

// emit publishes one lifecycle event best-effort. Handler failures are logged
// and never affect the batch.
func (b *Batch) emit(ctx context.Context, eventType string, payload any) {
	if b.emitter == nil {
		return
	}

	ev, err := events.NewBatchEvent(b.id, eventType, payload)
	if err != nil {
		b.logger.Error("failed to build batch event", "event_type", eventType, "error", err)
		return
	}

	if err := b.emitter.EmitEvent(ctx, ev); err != nil {
		b.logger.Debug("event handler reported error", "event_type", eventType, "error", err)
	}
}
