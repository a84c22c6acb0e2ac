package diff

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Status describes how a file changed in the diff.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
	StatusRenamed  Status = "renamed"
)

// Hunk is a single change region with old/new starting line and length.
type Hunk struct {
	OldStart int `json:"oldStart"`
	OldLines int `json:"oldLines"`
	NewStart int `json:"newStart"`
	NewLines int `json:"newLines"`
}

// File is one changed file with its hunks. The new-side line ranges of the
// hunks define where an inline comment can be anchored.
type File struct {
	Path    string `json:"path"`
	OldPath string `json:"oldPath,omitempty"`
	Status  Status `json:"status"`
	Hunks   []Hunk `json:"hunks"`
}

// ContainsNewLine reports whether line falls inside an added/context region
// of any hunk, i.e. whether an inline comment can anchor there as-is.
func (f *File) ContainsNewLine(line int) bool {
	if f.Status == StatusDeleted || line <= 0 {
		return false
	}
	for _, h := range f.Hunks {
		if h.NewLines > 0 && line >= h.NewStart && line < h.NewStart+h.NewLines {
			return true
		}
	}
	return false
}

// NearestNewLine returns the valid new-side line closest to line and its
// distance. ok is false when the file has no commentable lines at all.
func (f *File) NearestNewLine(line int) (nearest, distance int, ok bool) {
	if f.Status == StatusDeleted {
		return 0, 0, false
	}
	best := -1
	for _, h := range f.Hunks {
		if h.NewLines <= 0 {
			continue
		}
		lo, hi := h.NewStart, h.NewStart+h.NewLines-1
		candidate := line
		if line < lo {
			candidate = lo
		} else if line > hi {
			candidate = hi
		}
		d := candidate - line
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
			nearest = candidate
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return nearest, best, true
}

// Find returns the file entry for path, matching renames by new path.
func Find(files []File, path string) (*File, bool) {
	for i := range files {
		if files[i].Path == path {
			return &files[i], true
		}
	}
	return nil, false
}

// ChangedLines counts new-side lines covered by hunks across all files.
// Used by the budget estimator.
func ChangedLines(files []File) int {
	var n int
	for _, f := range files {
		for _, h := range f.Hunks {
			n += h.NewLines
		}
	}
	return n
}

// Parse converts a unified diff into File entries with hunk coordinates.
// It tolerates noise lines between file sections and returns an error only
// for malformed hunk headers.
func Parse(text string) ([]File, error) {
	var files []File
	var cur *File

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "diff --git "):
			files = append(files, File{Status: StatusModified})
			cur = &files[len(files)-1]
			if old, nw, ok := parseGitHeaderPaths(line); ok {
				cur.OldPath = old
				cur.Path = nw
				if old != nw {
					cur.Status = StatusRenamed
				}
			}
		case strings.HasPrefix(line, "--- "):
			if cur != nil && strings.TrimPrefix(line, "--- ") == "/dev/null" {
				cur.Status = StatusAdded
				cur.OldPath = ""
			}
		case strings.HasPrefix(line, "+++ "):
			if cur == nil {
				continue
			}
			target := strings.TrimPrefix(line, "+++ ")
			if target == "/dev/null" {
				cur.Status = StatusDeleted
				cur.Path = cur.OldPath
			} else {
				cur.Path = strings.TrimPrefix(target, "b/")
			}
		case strings.HasPrefix(line, "@@ "):
			if cur == nil {
				continue
			}
			h, err := parseHunkHeader(line)
			if err != nil {
				return nil, fmt.Errorf("parsing hunk header %q: %w", line, err)
			}
			cur.Hunks = append(cur.Hunks, h)
		case strings.HasPrefix(line, "rename from "):
			if cur != nil {
				cur.OldPath = strings.TrimPrefix(line, "rename from ")
				cur.Status = StatusRenamed
			}
		case strings.HasPrefix(line, "rename to "):
			if cur != nil {
				cur.Path = strings.TrimPrefix(line, "rename to ")
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning diff: %w", err)
	}

	// Drop header-only entries with no usable path
	out := files[:0]
	for _, f := range files {
		if f.Path != "" {
			out = append(out, f)
		}
	}
	return out, nil
}

// parseGitHeaderPaths extracts a/ and b/ paths from a "diff --git" line.
func parseGitHeaderPaths(line string) (old, nw string, ok bool) {
	rest := strings.TrimPrefix(line, "diff --git ")
	parts := strings.Fields(rest)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimPrefix(parts[0], "a/"), strings.TrimPrefix(parts[1], "b/"), true
}

// parseHunkHeader parses "@@ -oldStart,oldLines +newStart,newLines @@ ...".
func parseHunkHeader(line string) (Hunk, error) {
	var h Hunk
	body := strings.TrimPrefix(line, "@@ ")
	end := strings.Index(body, " @@")
	if end < 0 {
		return h, fmt.Errorf("missing closing @@")
	}
	parts := strings.Fields(body[:end])
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "-") || !strings.HasPrefix(parts[1], "+") {
		return h, fmt.Errorf("unexpected range format")
	}
	var err error
	h.OldStart, h.OldLines, err = parseRange(strings.TrimPrefix(parts[0], "-"))
	if err != nil {
		return h, err
	}
	h.NewStart, h.NewLines, err = parseRange(strings.TrimPrefix(parts[1], "+"))
	if err != nil {
		return h, err
	}
	return h, nil
}

func parseRange(s string) (start, count int, err error) {
	count = 1
	if i := strings.IndexByte(s, ','); i >= 0 {
		count, err = strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid line count %q: %w", s[i+1:], err)
		}
		s = s[:i]
	}
	start, err = strconv.Atoi(s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start line %q: %w", s, err)
	}
	return start, count, nil
}
