package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// Rule is one secret heuristic. The same table backs both prompt
// sanitization and the secret-scan agent, so a pattern added here is
// simultaneously stripped from LLM input and reported as a finding.
type Rule struct {
	ID          string
	Description string
	Pattern     *regexp.Regexp
}

// Rules are regex heuristics for common secret types.
var Rules = []Rule{
	{
		ID:          "SEC001",
		Description: "API key in assignment",
		Pattern:     regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	},
	{
		ID:          "SEC002",
		Description: "AWS access key ID",
		Pattern:     regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	},
	{
		ID:          "SEC003",
		Description: "AWS secret access key",
		Pattern:     regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	},
	{
		ID:          "SEC004",
		Description: "hardcoded secret in assignment",
		Pattern:     regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	},
	{
		ID:          "SEC005",
		Description: "bearer token",
		Pattern:     regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	},
	{
		ID:          "SEC006",
		Description: "JSON web token",
		Pattern:     regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	},
	{
		ID:          "SEC007",
		Description: "private key block",
		Pattern:     regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`),
	},
	{
		ID:          "SEC008",
		Description: "GitHub token",
		Pattern:     regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	},
	{
		ID:          "SEC009",
		Description: "Slack token",
		Pattern:     regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	},
	{
		ID:          "SEC010",
		Description: "Anthropic API key",
		Pattern:     regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	},
	{
		ID:          "SEC011",
		Description: "OpenAI API key",
		Pattern:     regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	},
	{
		ID:          "SEC012",
		Description: "hex-encoded key material",
		Pattern:     regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
	},
}

// Check returns every rule a single line of text trips.
func Check(line string) []Rule {
	var hits []Rule
	for _, r := range Rules {
		if r.Pattern.MatchString(line) {
			hits = append(hits, r)
		}
	}
	return hits
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, r := range Rules {
		result = r.Pattern.ReplaceAllString(result, placeholder)
	}
	return result
}

// ShouldRedactPath reports whether a file path matches any of the
// configured redaction globs.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// Patterns like "**/.env" also match on the bare filename.
		cleanPattern := strings.TrimPrefix(pattern, "**/")
		if cleanPattern != pattern {
			base := filepath.Base(path)
			matched, err = filepath.Match(cleanPattern, base)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Content redacts secrets from file content, or the whole file when its
// path matches a redaction glob.
func Content(content, path string, redactPaths []string) string {
	if ShouldRedactPath(path, redactPaths) {
		return placeholder + " (file content redacted by path policy)\n"
	}
	return Secrets(content)
}
