package stream

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/coursegen/coursegen-api/internal/domain"
)

// dayFromTitle matches a day number embedded in a title like "Day 4: Slices".
var dayFromTitle = regexp.MustCompile(`(?i)\bday\s+(\d+)`)

// NormalizeDayPlan reconstructs a canonical DayPlan from loosely shaped JSON.
//
// The day number is taken from an explicit "day" field, falling back to a
// number embedded in the title; absence of both fails the record. List-valued
// fields coerce to empty lists when absent or malformed, missing scalar
// fields default to empty strings. A structurally complete record passes
// through unchanged.
func NormalizeDayPlan(raw []byte) (*domain.DayPlan, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", domain.ErrInvalidFormat)
	}

	v := gjson.ParseBytes(raw)
	if !v.IsObject() {
		return nil, fmt.Errorf("%w: day payload is not an object", domain.ErrInvalidFormat)
	}

	plan := &domain.DayPlan{
		Day:                   int(v.Get("day").Int()),
		Title:                 v.Get("title").String(),
		Summary:               v.Get("summary").String(),
		Goals:                 stringList(v.Get("goals")),
		TheorySteps:           stringList(v.Get("theorySteps")),
		HandsOnSteps:          stringList(v.Get("handsOnSteps")),
		Resources:             resourceList(v.Get("resources")),
		Assignment:            v.Get("assignment").String(),
		CheckForUnderstanding: stringList(v.Get("checkForUnderstanding")),
	}

	if plan.Day < 1 {
		if m := dayFromTitle.FindStringSubmatch(plan.Title); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				plan.Day = n
			}
		}
	}

	if plan.Day < 1 {
		return nil, fmt.Errorf("%w: day number missing and not derivable from title", domain.ErrInvalidFormat)
	}

	return plan, nil
}

// stringList coerces a JSON value to a string slice, empty when absent or
// not an array.
func stringList(v gjson.Result) []string {
	if !v.IsArray() {
		return []string{}
	}

	elems := v.Array()
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		out = append(out, e.String())
	}
	return out
}

// resourceList coerces a JSON value to a Resource slice. Entries that are not
// objects are dropped; a missing resource type defaults to documentation so a
// partially generated record survives validation.
func resourceList(v gjson.Result) []domain.Resource {
	if !v.IsArray() {
		return []domain.Resource{}
	}

	elems := v.Array()
	out := make([]domain.Resource, 0, len(elems))
	for _, e := range elems {
		if !e.IsObject() {
			continue
		}

		r := domain.Resource{
			Title: e.Get("title").String(),
			URL:   e.Get("url").String(),
			Type:  domain.ResourceType(e.Get("type").String()),
		}
		if r.Type == "" {
			r.Type = domain.ResourceTypeDocumentation
		}
		out = append(out, r)
	}
	return out
}
