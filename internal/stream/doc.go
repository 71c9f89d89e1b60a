// Package stream implements the incremental decoder for the service's
// newline-delimited JSON event protocol, plus the matching encoder used by
// the HTTP streaming surface.
//
// The decoder accepts raw text chunks with no alignment guarantees: a single
// JSON record may arrive split across several chunks, and a chunk may carry
// several records. Malformed lines are reported through an error callback and
// never stop decoding of subsequent lines. The reassembly buffer is bounded;
// overflow truncates by policy, never by failure.
package stream
