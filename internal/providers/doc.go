// Package providers implements the inference backends the LLM review
// agents run against: Anthropic, OpenAI, Gemini, and Ollama/LM Studio.
// All clients retry rate limits and 5xx responses with exponential
// backoff and surface 401/403 as auth errors the CLI can map to a
// dedicated exit code.
package providers
