package report

import (
	"encoding/json"
	"io"
)

// JSONWriter emits the full report envelope as indented JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
