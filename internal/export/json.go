package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yourusername/word-sketch/internal/exact"
)

func WriteJSON(w io.Writer, s Snapshot) error {
	if err := json.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// WriteCountsJSON dumps exact counts ordered by frequency.
func WriteCountsJSON(w io.Writer, counts []exact.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(counts); err != nil {
		return fmt.Errorf("encoding counts: %w", err)
	}
	return nil
}
