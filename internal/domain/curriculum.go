package domain

import (
	"errors"
	"fmt"
)

// ResourceType classifies an external learning resource linked from a day plan.
type ResourceType string

// Possible resource type values
const (
	ResourceTypeDocumentation ResourceType = "documentation"
	ResourceTypeVideo         ResourceType = "video"
	ResourceTypeTutorial      ResourceType = "tutorial"
	ResourceTypeTool          ResourceType = "tool"
)

// ExperienceLevel describes the learner's starting proficiency.
type ExperienceLevel string

// Possible experience level values
const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// Common validation errors for curriculum entities
var (
	ErrInvalidDayNumber     = errors.New("day number must be positive")
	ErrEmptyDayTitle        = errors.New("day title cannot be empty")
	ErrInvalidResourceType  = errors.New("invalid resource type")
	ErrEmptyTopic           = errors.New("topic cannot be empty")
	ErrInvalidTotalDays     = errors.New("total days must be positive")
	ErrInvalidExperience    = errors.New("invalid experience level")
	ErrIncompleteCurriculum = errors.New("curriculum is missing day plans")
	ErrMisorderedCurriculum = errors.New("curriculum days are not in ascending order")
)

// Resource is a single external reference attached to a day plan.
type Resource struct {
	Title string       `json:"title"`
	URL   string       `json:"url"`
	Type  ResourceType `json:"type"`
}

// Validate checks if the Resource has valid data.
func (r *Resource) Validate() error {
	if !isValidResourceType(r.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidResourceType, r.Type)
	}
	return nil
}

// isValidResourceType checks if the given type is a valid ResourceType.
func isValidResourceType(t ResourceType) bool {
	switch t {
	case ResourceTypeDocumentation, ResourceTypeVideo, ResourceTypeTutorial, ResourceTypeTool:
		return true
	default:
		return false
	}
}

// DayPlan is the generated payload for one day of a curriculum. The Day field
// is the unit's position in the final curriculum, counting from 1, and is the
// sole ordering key.
type DayPlan struct {
	Day                   int        `json:"day"`
	Title                 string     `json:"title"`
	Summary               string     `json:"summary"`
	Goals                 []string   `json:"goals"`
	TheorySteps           []string   `json:"theorySteps"`
	HandsOnSteps          []string   `json:"handsOnSteps"`
	Resources             []Resource `json:"resources"`
	Assignment            string     `json:"assignment"`
	CheckForUnderstanding []string   `json:"checkForUnderstanding"`
}

// Validate checks if the DayPlan has valid data.
// Returns an error if any field fails validation.
func (d *DayPlan) Validate() error {
	if d.Day < 1 {
		return ErrInvalidDayNumber
	}

	if d.Title == "" {
		return ErrEmptyDayTitle
	}

	for i := range d.Resources {
		if err := d.Resources[i].Validate(); err != nil {
			return fmt.Errorf("resource %d: %w", i, err)
		}
	}

	return nil
}

// CoursePlan is a fully assembled curriculum: every day from 1..N present,
// in strictly ascending day order.
type CoursePlan struct {
	Topic string    `json:"topic"`
	Days  []DayPlan `json:"days"`
}

// Validate checks the assembled plan for the ordering invariant: exactly
// len(Days) entries numbered 1..N ascending with no gaps or duplicates.
func (p *CoursePlan) Validate() error {
	if len(p.Days) == 0 {
		return ErrIncompleteCurriculum
	}

	for i := range p.Days {
		if p.Days[i].Day != i+1 {
			return fmt.Errorf("%w: position %d holds day %d", ErrMisorderedCurriculum, i, p.Days[i].Day)
		}
	}

	return nil
}

// GenerationRequest carries the caller-supplied parameters for one batch.
// It is immutable for the life of the batch.
type GenerationRequest struct {
	Topic      string          `json:"topic"`
	Experience ExperienceLevel `json:"experienceLevel"`
	TotalDays  int             `json:"totalDays"`
	Goals      []string        `json:"goals,omitempty"`
}

// Validate checks if the GenerationRequest has valid data.
func (r *GenerationRequest) Validate() error {
	if r.Topic == "" {
		return ErrEmptyTopic
	}

	if r.TotalDays < 1 {
		return ErrInvalidTotalDays
	}

	if !isValidExperienceLevel(r.Experience) {
		return fmt.Errorf("%w: %q", ErrInvalidExperience, r.Experience)
	}

	return nil
}

// isValidExperienceLevel checks if the given level is a valid ExperienceLevel.
func isValidExperienceLevel(l ExperienceLevel) bool {
	switch l {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced:
		return true
	default:
		return false
	}
}
