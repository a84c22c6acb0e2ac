// Package llm implements the inference-backed review agents: one
// running against a hosted provider, one against local Ollama/LM
// Studio. Both redact secrets from the diff before it leaves the
// machine and parse the model's JSON findings with a single repair
// round-trip.
package llm
