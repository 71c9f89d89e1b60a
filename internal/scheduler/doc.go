// Package scheduler drives the generation of one curriculum batch: it runs
// every day index 1..N through the day generator under a concurrency ceiling,
// retries transient failures per day with exponential backoff, supports
// cooperative mid-flight cancellation, and assembles the completed plans into
// one ordered curriculum or an aggregate failure naming the days that never
// resolved.
package scheduler
