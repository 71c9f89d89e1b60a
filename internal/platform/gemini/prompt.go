package gemini

import (
	"strings"
)

// dayPromptTemplate is the embedded default prompt for generating one day of
// a curriculum. It can be overridden via LLMConfig.PromptTemplatePath.
const dayPromptTemplate = `You are designing day {{.Day}} of a {{.TotalDays}}-day learning curriculum
on "{{.Topic}}" for a {{.Experience}} learner.
{{- if .Goals}}
The learner's stated goals:
{{- range .Goals}}
- {{.}}
{{- end}}
{{- end}}

Respond with ONLY a single JSON object, no prose and no markdown fences, with
exactly these fields:
{"day": {{.Day}}, "title": string, "summary": string, "goals": [string],
"theorySteps": [string], "handsOnSteps": [string],
"resources": [{"title": string, "url": string, "type": "documentation"|"video"|"tutorial"|"tool"}],
"assignment": string, "checkForUnderstanding": [string]}

The "day" field must be exactly {{.Day}}. Steps should build on the previous
days and stay achievable in one day of part-time study.`

// streamPromptTemplate asks for the whole curriculum as newline-delimited
// JSON records so the response can be decoded incrementally as it arrives.
const streamPromptTemplate = `You are designing a {{.TotalDays}}-day learning curriculum on "{{.Topic}}"
for a {{.Experience}} learner.
{{- if .Goals}}
The learner's stated goals:
{{- range .Goals}}
- {{.}}
{{- end}}
{{- end}}

Emit the curriculum as newline-delimited JSON: one complete JSON object per
line, no markdown fences, no prose. For each day 1 through {{.TotalDays}} emit:
{"type":"day","day":{"day": n, "title": string, "summary": string, "goals": [string],
"theorySteps": [string], "handsOnSteps": [string],
"resources": [{"title": string, "url": string, "type": "documentation"|"video"|"tutorial"|"tool"}],
"assignment": string, "checkForUnderstanding": [string]}}
After the final day emit: {"type":"done","totalGenerated":{{.TotalDays}}}`

// promptData is the template input for both prompt templates.
type promptData struct {
	Topic      string
	Experience string
	Day        int
	TotalDays  int
	Goals      []string
}

// cleanResponse strips markdown code fences the model sometimes wraps around
// JSON output despite instructions.
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	return text
}
