package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursegen/coursegen-api/internal/domain"
	"github.com/coursegen/coursegen-api/internal/scheduler"
	"github.com/coursegen/coursegen-api/internal/stream"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// stubGenerator implements generation.DayGenerator with a fixed behavior.
type stubGenerator struct {
	failDays map[int]bool
}

func (s *stubGenerator) GenerateDay(_ context.Context, _ domain.GenerationRequest, day int) (*domain.DayPlan, error) {
	if s.failDays[day] {
		return nil, errors.New("model unavailable")
	}
	return &domain.DayPlan{Day: day, Title: fmt.Sprintf("Day %d", day)}, nil
}

func testSchedulerConfig() scheduler.Config {
	return scheduler.Config{
		MaxConcurrent: 3,
		Policy:        scheduler.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	}
}

func newTestHandler(gen *stubGenerator) *CurriculumHandler {
	return NewCurriculumHandler(gen, testSchedulerConfig(), setupTestLogger())
}

const validBody = `{"topic":"Go","experienceLevel":"beginner","totalDays":3}`

func TestGenerateCurriculumSuccess(t *testing.T) {
	h := newTestHandler(&stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/curricula", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	h.GenerateCurriculum(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var plan domain.CoursePlan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&plan))
	assert.Equal(t, "Go", plan.Topic)
	require.Len(t, plan.Days, 3)
	for i, d := range plan.Days {
		assert.Equal(t, i+1, d.Day)
	}
}

func TestGenerateCurriculumInvalidBody(t *testing.T) {
	h := newTestHandler(&stubGenerator{})

	cases := []string{
		`not json`,
		`{"topic":"","experienceLevel":"beginner","totalDays":3}`,
		`{"topic":"Go","experienceLevel":"wizard","totalDays":3}`,
		`{"topic":"Go","experienceLevel":"beginner","totalDays":0}`,
		`{"topic":"Go","experienceLevel":"beginner","totalDays":9000}`,
	}

	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/curricula", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.GenerateCurriculum(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestGenerateCurriculumAggregateFailure(t *testing.T) {
	h := newTestHandler(&stubGenerator{failDays: map[int]bool{2: true}})

	req := httptest.NewRequest(http.MethodPost, "/api/curricula", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	h.GenerateCurriculum(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []int{2}, resp.FailedDays)
}

func TestStreamCurriculumEmitsWireEvents(t *testing.T) {
	h := newTestHandler(&stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/curricula/stream", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	h.StreamCurriculum(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	// Decode the response with the stream processor; it is the reference
	// consumer for this protocol.
	var events []stream.Event
	p := stream.NewProcessor(func(ev stream.Event) { events = append(events, ev) }, func(err error) {
		t.Errorf("unexpected decode error: %v", err)
	})
	p.ProcessChunk(rec.Body.String())

	require.NotEmpty(t, events)

	var dayCount, planCount, doneCount int
	for _, ev := range events {
		switch ev.Type {
		case stream.EventDay:
			dayCount++
		case stream.EventFullPlan:
			planCount++
			require.NotNil(t, ev.Plan)
			assert.Len(t, ev.Plan.Days, 3)
		case stream.EventDone:
			doneCount++
			assert.Equal(t, 3, ev.TotalGenerated)
		}
	}

	assert.Equal(t, 3, dayCount)
	assert.Equal(t, 1, planCount)
	assert.Equal(t, 1, doneCount)
	assert.Equal(t, stream.EventDone, events[len(events)-1].Type)
}

// streamingStub implements both generation interfaces.
type streamingStub struct {
	stubGenerator
}

func (s *streamingStub) GenerateStream(_ context.Context, req domain.GenerationRequest, onDay func(*domain.DayPlan), onErr func(error)) error {
	for day := 1; day <= req.TotalDays; day++ {
		if s.failDays[day] {
			onErr(fmt.Errorf("day %d did not decode", day))
			continue
		}
		onDay(&domain.DayPlan{Day: day, Title: fmt.Sprintf("Day %d", day)})
	}
	return nil
}

func TestStreamCurriculumSingleCallMode(t *testing.T) {
	gen := &streamingStub{stubGenerator{failDays: map[int]bool{2: true}}}
	h := NewCurriculumHandler(gen, testSchedulerConfig(), setupTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/curricula/stream?mode=single", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	h.StreamCurriculum(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var events []stream.Event
	p := stream.NewProcessor(func(ev stream.Event) { events = append(events, ev) }, nil)
	p.ProcessChunk(rec.Body.String())

	var dayCount, errCount int
	for _, ev := range events {
		switch ev.Type {
		case stream.EventDay:
			dayCount++
		case stream.EventError:
			errCount++
		}
	}
	assert.Equal(t, 2, dayCount)
	assert.Equal(t, 1, errCount)

	last := events[len(events)-1]
	require.Equal(t, stream.EventDone, last.Type)
	assert.Equal(t, 2, last.TotalGenerated)
}

func TestStreamCurriculumSingleCallModeUnsupported(t *testing.T) {
	h := newTestHandler(&stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/curricula/stream?mode=single", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	h.StreamCurriculum(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestStreamCurriculumAggregateFailure(t *testing.T) {
	h := newTestHandler(&stubGenerator{failDays: map[int]bool{1: true, 2: true, 3: true}})

	req := httptest.NewRequest(http.MethodPost, "/api/curricula/stream", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	h.StreamCurriculum(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var events []stream.Event
	p := stream.NewProcessor(func(ev stream.Event) { events = append(events, ev) }, nil)
	p.ProcessChunk(rec.Body.String())

	var sawError, sawDone bool
	for _, ev := range events {
		switch ev.Type {
		case stream.EventError:
			sawError = true
		case stream.EventDone:
			sawDone = true
		}
	}
	assert.True(t, sawError, "expected an error event for the failed batch")
	assert.True(t, sawDone, "stream must terminate with a done event")
}
