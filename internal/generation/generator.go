package generation

import (
	"context"

	"github.com/coursegen/coursegen-api/internal/domain"
)

// DayGenerator defines the interface for generating a single curriculum day.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
//
// Implementations make exactly one remote call per invocation; retry and
// backoff belong to the caller (the batch scheduler), not the adapter.
type DayGenerator interface {
	// GenerateDay creates the plan for one day of the requested curriculum.
	// The day argument counts from 1 and must match the Day field of the
	// returned plan; implementations report a mismatch as an error rather
	// than silently renumbering.
	//
	// The context carries cancellation for the one outstanding call. A
	// cancelled context must surface as ctx.Err() (possibly wrapped) so the
	// caller can distinguish cancellation from ordinary failure.
	GenerateDay(ctx context.Context, req domain.GenerationRequest, day int) (*domain.DayPlan, error)
}

// StreamGenerator defines the interface for generating a whole curriculum as
// an incremental event stream rather than one blocking call per day.
type StreamGenerator interface {
	// GenerateStream issues a single streaming remote call for the full
	// curriculum and decodes the arriving chunks incrementally. Completed
	// day plans are delivered through onDay in arrival order; decode and
	// validation problems are delivered through onErr without stopping the
	// stream. Returns once the stream ends or the context is cancelled.
	GenerateStream(
		ctx context.Context,
		req domain.GenerationRequest,
		onDay func(*domain.DayPlan),
		onErr func(error),
	) error
}
