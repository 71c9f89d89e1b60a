package gemini

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursegen/coursegen-api/internal/config"
	"github.com/coursegen/coursegen-api/internal/domain"
	"github.com/coursegen/coursegen-api/internal/generation"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey: "test-api-key",
		ModelName:    "gemini-2.5-flash",
	}
}

func TestNewDayGeneratorValidatesDependencies(t *testing.T) {
	ctx := context.Background()

	_, err := NewDayGenerator(ctx, nil, testLLMConfig())
	assert.Error(t, err)

	cfg := testLLMConfig()
	cfg.GeminiAPIKey = ""
	_, err = NewDayGenerator(ctx, setupTestLogger(), cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg = testLLMConfig()
	cfg.ModelName = ""
	_, err = NewDayGenerator(ctx, setupTestLogger(), cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg = testLLMConfig()
	cfg.PromptTemplatePath = filepath.Join(t.TempDir(), "missing.tmpl")
	_, err = NewDayGenerator(ctx, setupTestLogger(), cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestNewDayGeneratorWithTemplateOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("plan day {{.Day}} about {{.Topic}}"), 0o600))

	cfg := testLLMConfig()
	cfg.PromptTemplatePath = path

	g, err := NewDayGenerator(context.Background(), setupTestLogger(), cfg)
	require.NoError(t, err)

	prompt, err := g.buildPrompt(g.dayTemplate, domain.GenerationRequest{
		Topic:      "SQL",
		Experience: domain.ExperienceBeginner,
		TotalDays:  5,
	}, 2)
	require.NoError(t, err)
	assert.Equal(t, "plan day 2 about SQL", prompt)
}

func TestBuildPromptDefaults(t *testing.T) {
	g, err := NewDayGenerator(context.Background(), setupTestLogger(), testLLMConfig())
	require.NoError(t, err)

	req := domain.GenerationRequest{
		Topic:      "Kubernetes",
		Experience: domain.ExperienceAdvanced,
		TotalDays:  10,
		Goals:      []string{"pass the CKA"},
	}

	prompt, err := g.buildPrompt(g.dayTemplate, req, 4)
	require.NoError(t, err)
	assert.Contains(t, prompt, "day 4")
	assert.Contains(t, prompt, "10-day")
	assert.Contains(t, prompt, "Kubernetes")
	assert.Contains(t, prompt, "advanced")
	assert.Contains(t, prompt, "pass the CKA")

	streamPrompt, err := g.buildPrompt(g.streamTemplate, req, 0)
	require.NoError(t, err)
	assert.Contains(t, streamPrompt, "newline-delimited JSON")
	assert.Contains(t, streamPrompt, `{"type":"done","totalGenerated":10}`)
}

func TestCleanResponse(t *testing.T) {
	cases := map[string]string{
		"{\"day\":1}":                         `{"day":1}`,
		"```json\n{\"day\":1}\n```":           `{"day":1}`,
		"```\n{\"day\":1}\n```":               `{"day":1}`,
		"  \n{\"day\":1}\n  ":                 `{"day":1}`,
	}

	for in, want := range cases {
		assert.Equal(t, want, cleanResponse(in), "input %q", in)
	}
}
