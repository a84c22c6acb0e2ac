package llm

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dshills/revet/internal/diff"
)

const systemPrompt = `You are a strict, expert code reviewer. Your job is to review code diffs and produce structured findings in JSON format.

Rules:
1. Only review the changes shown in the diff. Do not comment on unchanged code.
2. Focus on bugs, security issues, performance problems, and correctness. Avoid bikeshedding on style unless it impacts readability significantly.
3. Be concise and actionable. Every finding should include a concrete suggestion.
4. Reference line numbers on the NEW side of the diff hunks. Omit the line fields for file-level remarks.
5. Rate severity as "error", "warning", or "info".

You MUST respond with ONLY a JSON array of findings. No markdown, no explanation, no preamble. Just the JSON array.

Each finding must have this exact structure:
{
  "severity": "error|warning|info",
  "file": "relative/file/path",
  "line": 1,
  "endLine": 1,
  "message": "What is wrong and why it matters",
  "suggestion": "How to fix it, with code if helpful",
  "ruleId": "optional short identifier"
}

If there are no issues, respond with an empty array: []`

// buildPrompt constructs the user prompt from the diff and run context.
func buildPrompt(diffText string, files []diff.File, maxFindings int) string {
	var b strings.Builder

	b.WriteString("Review the following code diff.\n\n")

	if maxFindings > 0 {
		fmt.Fprintf(&b, "Return at most %d findings.\n", maxFindings)
	}

	if langs := detectLanguages(files); len(langs) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(langs, ", "))
	}

	b.WriteString("\n--- BEGIN DIFF ---\n")
	b.WriteString(diffText)
	b.WriteString("\n--- END DIFF ---\n")

	return b.String()
}

func repairPrompt(parseErr error, previous string) string {
	return fmt.Sprintf(
		"Your previous response was not valid JSON. The error was: %s\n\nPlease fix it and respond with ONLY a valid JSON array of findings.\n\nYour previous response was:\n%s",
		parseErr.Error(), previous,
	)
}

var langByExt = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript/React",
	".jsx":   "JavaScript/React",
	".rs":    "Rust",
	".java":  "Java",
	".rb":    "Ruby",
	".cpp":   "C++",
	".c":     "C",
	".h":     "C/C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".sql":   "SQL",
	".sh":    "Shell",
	".yaml":  "YAML",
	".yml":   "YAML",
	".json":  "JSON",
	".tf":    "Terraform",
}

func detectLanguages(files []diff.File) []string {
	seen := make(map[string]bool)
	var langs []string
	for _, f := range files {
		lang, ok := langByExt[filepath.Ext(f.Path)]
		if ok && !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	return langs
}
