// Package gemini implements the generation interfaces using Google's Gemini
// API. It translates curriculum day requests into prompts, classifies API and
// response failures into the generation package's error taxonomy, and leaves
// retry decisions entirely to the caller.
package gemini
