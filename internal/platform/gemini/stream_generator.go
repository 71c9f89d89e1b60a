package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/coursegen/coursegen-api/internal/domain"
	"github.com/coursegen/coursegen-api/internal/generation"
	"github.com/coursegen/coursegen-api/internal/stream"
)

// GenerateStream issues one streaming Gemini call for the whole curriculum,
// prompting the model to emit newline-delimited JSON day records, and decodes
// the arriving chunks through the stream processor. Chunk boundaries carry no
// alignment guarantees, so the processor performs all line reassembly;
// malformed fragments reach onErr and never stop the stream.
func (g *DayGenerator) GenerateStream(
	ctx context.Context,
	req domain.GenerationRequest,
	onDay func(*domain.DayPlan),
	onErr func(error),
) error {
	prompt, err := g.buildPrompt(g.streamTemplate, req, 0)
	if err != nil {
		return err
	}

	onEvent := func(ev stream.Event) {
		switch ev.Type {
		case stream.EventDay:
			onDay(ev.Day)
		case stream.EventFullPlan:
			// A model that ignored the line protocol and sent one big plan
			// still yields its days individually.
			for i := range ev.Plan.Days {
				onDay(&ev.Plan.Days[i])
			}
		case stream.EventError:
			if onErr != nil {
				onErr(fmt.Errorf("%w: %s", generation.ErrGenerationFailed, ev.Error))
			}
		}
	}

	procOpts := []stream.ProcessorOption{stream.WithLogger(g.logger)}
	if g.streamBuffer > 0 {
		procOpts = append(procOpts, stream.WithMaxBuffer(g.streamBuffer))
	}
	proc := stream.NewProcessor(onEvent, onErr, procOpts...)

	g.logger.DebugContext(ctx, "starting streaming Gemini API call",
		"topic", req.Topic,
		"total_days", req.TotalDays)

	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), nil) {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
		proc.ProcessChunk(resp.Text())
	}

	proc.Flush()

	stats := proc.Stats()
	g.logger.DebugContext(ctx, "streaming Gemini API call finished",
		"events", stats.Events,
		"day_events", stats.DayEvents,
		"decode_errors", stats.Errors)

	return nil
}
