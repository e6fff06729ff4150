// Package gemini implements the generation.Generator interface using
// Google's Gemini API. It owns prompt construction, the API call with
// exponential backoff retry, and extraction of card candidates from the
// model's text response.
//
// The package distinguishes transient failures (network errors, rate
// limits), which are retried with backoff and jitter, from permanent ones
// (safety blocks, empty responses), which fail immediately.
package gemini
