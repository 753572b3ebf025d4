package guardrail

import (
	"fmt"

	"github.com/yourusername/word-sketch/internal/config"
)

// CounterBytes is the width of one sketch counter.
const CounterBytes = 4

type SizeGuardrail struct {
	config config.GuardrailConfig
}

func NewSizeGuardrail(cfg config.GuardrailConfig) *SizeGuardrail {
	return &SizeGuardrail{
		config: cfg,
	}
}

// Validate checks that a rows x columns sketch fits the configured limits.
// A zero limit disables that check.
func (g *SizeGuardrail) Validate(rows, columns int) error {
	if g.config.MaxRows > 0 && rows > g.config.MaxRows {
		return fmt.Errorf("sketch exceeds maximum rows: %d > %d", rows, g.config.MaxRows)
	}

	if g.config.MaxCounterBytes > 0 {
		size := int64(rows) * int64(columns) * CounterBytes
		if size > g.config.MaxCounterBytes {
			return fmt.Errorf("sketch exceeds maximum counter memory: %d > %d bytes", size, g.config.MaxCounterBytes)
		}
	}

	return nil
}
