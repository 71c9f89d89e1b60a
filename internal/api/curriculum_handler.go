package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/coursegen/coursegen-api/internal/domain"
	"github.com/coursegen/coursegen-api/internal/events"
	"github.com/coursegen/coursegen-api/internal/generation"
	"github.com/coursegen/coursegen-api/internal/scheduler"
	"github.com/coursegen/coursegen-api/internal/stream"
)

// GenerateCurriculumRequest represents the request body for generating a curriculum
type GenerateCurriculumRequest struct {
	Topic           string   `json:"topic"           validate:"required,min=1"`
	ExperienceLevel string   `json:"experienceLevel" validate:"required,oneof=beginner intermediate advanced"`
	TotalDays       int      `json:"totalDays"       validate:"required,gt=0,lte=30"`
	Goals           []string `json:"goals"           validate:"omitempty,dive,min=1"`
}

// toDomain converts the DTO to the immutable domain request.
func (r *GenerateCurriculumRequest) toDomain() domain.GenerationRequest {
	return domain.GenerationRequest{
		Topic:      r.Topic,
		Experience: domain.ExperienceLevel(r.ExperienceLevel),
		TotalDays:  r.TotalDays,
		Goals:      r.Goals,
	}
}

// CurriculumHandler handles curriculum generation HTTP requests
type CurriculumHandler struct {
	generator generation.DayGenerator
	schedCfg  scheduler.Config
	logger    *slog.Logger
	validator *validator.Validate
}

// NewCurriculumHandler creates a new CurriculumHandler
func NewCurriculumHandler(generator generation.DayGenerator, schedCfg scheduler.Config, logger *slog.Logger) *CurriculumHandler {
	return &CurriculumHandler{
		generator: generator,
		schedCfg:  schedCfg,
		logger:    logger.With("component", "curriculum_handler"),
		validator: validator.New(),
	}
}

// decodeRequest parses and validates the generation request body.
func (h *CurriculumHandler) decodeRequest(r *http.Request) (*GenerateCurriculumRequest, error) {
	var req GenerateCurriculumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid request format")
	}
	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// GenerateCurriculum handles POST /api/curricula requests. It blocks until
// the batch resolves and returns the assembled plan, an aggregate failure
// naming the days that could not be generated, or nothing when the client
// went away.
func (h *CurriculumHandler) GenerateCurriculum(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := scheduler.NewBatch(h.generator, h.schedCfg, h.logger, nil)
	if err != nil {
		h.logger.Error("failed to create batch", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to start generation")
		return
	}

	days, err := batch.Run(r.Context(), req.toDomain())
	if err != nil {
		h.respondRunError(w, r.Context(), err)
		return
	}

	RespondWithJSON(w, http.StatusOK, domain.CoursePlan{Topic: req.Topic, Days: days})
}

// respondRunError maps a batch resolution failure to an HTTP response.
func (h *CurriculumHandler) respondRunError(w http.ResponseWriter, ctx context.Context, err error) {
	var aggErr *scheduler.AggregateError
	switch {
	case errors.Is(err, scheduler.ErrCancelled):
		// The only cancellation source here is the request context; the
		// client is gone, so there is no one to respond to.
		h.logger.Info("generation cancelled by client", "ctx_err", ctx.Err())

	case errors.As(err, &aggErr):
		RespondWithJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:      "generation failed for some days",
			FailedDays: aggErr.FailedDays,
		})

	default:
		RespondWithError(w, http.StatusBadRequest, err.Error())
	}
}

// StreamCurriculum handles POST /api/curricula/stream requests. Batch
// lifecycle events are relayed to the client as they happen using the
// newline-delimited JSON wire protocol, terminated by a done event.
func (h *CurriculumHandler) StreamCurriculum(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("mode") == "single" {
		h.streamSingleCall(w, r, req)
		return
	}

	emitter := events.NewInMemoryEmitter(h.logger)
	batch, err := scheduler.NewBatch(h.generator, h.schedCfg, h.logger, emitter)
	if err != nil {
		h.logger.Error("failed to create batch", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to start generation")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	// The scheduler dispatches events from its own goroutines; writes to the
	// response must be serialized.
	var mu sync.Mutex
	sw := stream.NewWriter(w)
	write := func(ev stream.Event) {
		mu.Lock()
		defer mu.Unlock()
		if err := sw.Write(ev); err != nil {
			h.logger.Debug("client write failed", "error", err)
		}
	}

	emitter.RegisterHandler(events.HandlerFunc(func(_ context.Context, ev *events.BatchEvent) error {
		switch ev.Type {
		case events.TypeBatchProgress:
			var p scheduler.Progress
			if err := ev.UnmarshalPayload(&p); err != nil {
				return err
			}
			write(stream.Event{Type: stream.EventProgress, Value: p.Status})

		case events.TypeDayCompleted:
			var plan domain.DayPlan
			if err := ev.UnmarshalPayload(&plan); err != nil {
				return err
			}
			write(stream.Event{Type: stream.EventDay, Day: &plan})
		}
		return nil
	}))

	days, err := batch.Run(r.Context(), req.toDomain())

	var aggErr *scheduler.AggregateError
	switch {
	case err == nil:
		write(stream.Event{Type: stream.EventFullPlan, Plan: &domain.CoursePlan{Topic: req.Topic, Days: days}})
		write(stream.Event{Type: stream.EventDone, TotalGenerated: len(days)})

	case errors.Is(err, scheduler.ErrCancelled):
		h.logger.Info("streaming generation cancelled by client")

	case errors.As(err, &aggErr):
		write(stream.Event{Type: stream.EventError, Error: aggErr.Error()})
		write(stream.Event{Type: stream.EventDone, TotalGenerated: batch.Progress().Completed})

	default:
		write(stream.Event{Type: stream.EventError, Error: err.Error()})
		write(stream.Event{Type: stream.EventDone})
	}
}

// streamSingleCall serves mode=single: one streaming model call for the whole
// curriculum, with day records relayed as they decode. No retry policy applies
// here; a broken record is reported inline and the stream continues.
func (h *CurriculumHandler) streamSingleCall(w http.ResponseWriter, r *http.Request, req *GenerateCurriculumRequest) {
	sg, ok := h.generator.(generation.StreamGenerator)
	if !ok {
		RespondWithError(w, http.StatusNotImplemented, "streaming generation not supported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	sw := stream.NewWriter(w)
	write := func(ev stream.Event) {
		if err := sw.Write(ev); err != nil {
			h.logger.Debug("client write failed", "error", err)
		}
	}

	var generated int
	err := sg.GenerateStream(r.Context(), req.toDomain(),
		func(plan *domain.DayPlan) {
			generated++
			write(stream.Event{Type: stream.EventDay, Day: plan})
		},
		func(err error) {
			write(stream.Event{Type: stream.EventError, Error: err.Error()})
		},
	)
	if err != nil {
		if r.Context().Err() != nil {
			h.logger.Info("single-call stream cancelled by client")
			return
		}
		write(stream.Event{Type: stream.EventError, Error: err.Error()})
	}

	write(stream.Event{Type: stream.EventDone, TotalGenerated: generated})
}
