// Package api contains the HTTP handlers for the curriculum generation
// service: a blocking generate endpoint returning the assembled plan, and a
// streaming endpoint that relays batch lifecycle events as newline-delimited
// JSON while generation is in flight.
package api
