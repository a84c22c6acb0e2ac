package resolve

import (
	"github.com/dshills/revet/internal/agent"
	"github.com/dshills/revet/internal/diff"
)

// Stats counts line-resolution outcomes. The inline-prefixed counters are
// restricted to findings that originally carried a line number; the
// aggregate counters can be diluted by file-level findings that never
// needed resolution, so gating reads the inline pair.
type Stats struct {
	Total      int `json:"total"`
	Valid      int `json:"valid"`
	Normalized int `json:"normalized"`
	Downgraded int `json:"downgraded"`
	Dropped    int `json:"dropped"`

	InlineTotal      int `json:"inlineTotal"`
	InlineNormalized int `json:"inlineNormalized"`
	InlineDowngraded int `json:"inlineDowngraded"`
	InlineDropped    int `json:"inlineDropped"`
}

// Result is the output of resolving a finding set against a diff.
type Result struct {
	Findings []agent.Finding
	Stats    Stats
	// Samples holds up to maxSamples findings that lost their inline
	// anchor, for the drift signal message.
	Samples []agent.Finding
}

const maxSamples = 3

// Apply maps every finding's line onto the diff's new-side coordinate
// space.
//
// A finding without a line is inherently valid (file-level). A line inside
// an added/context hunk region is used as-is. A line within maxShift of
// the nearest valid line is snapped to it (normalized). A larger shift
// downgrades the finding to file-level. A line that cannot be mapped at
// all (file absent from the diff, deleted, or no commentable lines) is
// counted as dropped; the message survives as a file-level comment, only
// the inline anchor is lost.
func Apply(findings []agent.Finding, files []diff.File, maxShift int) Result {
	var res Result
	res.Findings = make([]agent.Finding, 0, len(findings))

	for _, f := range findings {
		res.Stats.Total++
		if !f.Inline() {
			res.Stats.Valid++
			res.Findings = append(res.Findings, f)
			continue
		}
		res.Stats.InlineTotal++

		df, ok := diff.Find(files, f.File)
		if !ok || df.Status == diff.StatusDeleted {
			res.drop(f)
			continue
		}
		if df.ContainsNewLine(f.Line) {
			res.Stats.Valid++
			res.Findings = append(res.Findings, f)
			continue
		}

		nearest, distance, ok := df.NearestNewLine(f.Line)
		if !ok {
			res.drop(f)
			continue
		}
		if distance <= maxShift {
			res.Stats.Normalized++
			res.Stats.InlineNormalized++
			res.Findings = append(res.Findings, snap(f, nearest, df))
			continue
		}

		// The agent analyzed coordinates too far from any hunk,
		// likely a near-stale diff. Keep the message, lose the anchor.
		res.Stats.Downgraded++
		res.Stats.InlineDowngraded++
		res.Findings = append(res.Findings, toFileLevel(f))
		res.sample(f)
	}
	return res
}

func (r *Result) drop(f agent.Finding) {
	r.Stats.Dropped++
	r.Stats.InlineDropped++
	r.Findings = append(r.Findings, toFileLevel(f))
	r.sample(f)
}

func (r *Result) sample(f agent.Finding) {
	if len(r.Samples) < maxSamples {
		r.Samples = append(r.Samples, f)
	}
}

// snap moves a finding to the nearest valid line, shifting the end line by
// the same delta and clamping it into the same hunk region.
func snap(f agent.Finding, line int, df *diff.File) agent.Finding {
	delta := line - f.Line
	f.Line = line
	if f.EndLine > 0 {
		f.EndLine += delta
		if f.EndLine < f.Line {
			f.EndLine = f.Line
		}
		if !df.ContainsNewLine(f.EndLine) {
			f.EndLine = f.Line
		}
	}
	return f
}

func toFileLevel(f agent.Finding) agent.Finding {
	f.Line = 0
	f.EndLine = 0
	return f
}
