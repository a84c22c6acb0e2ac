package diff

import (
	"bufio"
	"strings"
)

// AddedLine is one "+" line of a unified diff with its new-side number.
type AddedLine struct {
	File    string
	Line    int
	Content string
}

// AddedLines extracts every added line with its new-side line number.
// Rule-based agents scan these instead of re-walking the raw diff.
func AddedLines(text string) []AddedLine {
	var out []AddedLine
	var file string
	var newLine int
	inHunk := false

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "diff --git "):
			inHunk = false
		case strings.HasPrefix(line, "+++ "):
			target := strings.TrimPrefix(line, "+++ ")
			if target == "/dev/null" {
				file = ""
			} else {
				file = strings.TrimPrefix(target, "b/")
			}
			inHunk = false
		case strings.HasPrefix(line, "@@ "):
			h, err := parseHunkHeader(line)
			if err != nil {
				inHunk = false
				continue
			}
			newLine = h.NewStart
			inHunk = true
		case !inHunk || file == "":
		case strings.HasPrefix(line, "+"):
			out = append(out, AddedLine{File: file, Line: newLine, Content: line[1:]})
			newLine++
		case strings.HasPrefix(line, "-"):
			// old side only, no new line number consumed
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file"
		default:
			newLine++
		}
	}
	return out
}
