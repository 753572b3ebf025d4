package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/yourusername/word-sketch/pkg/quantizer"
)

// GridSize returns the near-square width and height used to lay out n
// counters. Trailing cells beyond n stay black.
func GridSize(n int) (width, height int) {
	width = int(math.Ceil(math.Sqrt(float64(n))))
	if width == 0 {
		return 0, 0
	}
	height = (n + width - 1) / width
	return width, height
}

// RenderPNG draws one grayscale pixel per counter in row-major order,
// brightness log-scaled to the hottest counter.
func RenderPNG(w io.Writer, s Snapshot) error {
	if len(s.Counters) == 0 {
		return fmt.Errorf("%w: no counters to render", ErrBadFormat)
	}

	var q quantizer.Quantizer = quantizer.NewScalarQuantizer(true)
	if err := q.Fit(s.Counters); err != nil {
		return fmt.Errorf("fitting quantizer: %w", err)
	}

	width, height := GridSize(len(s.Counters))
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i, v := range s.Counters {
		img.SetGray(i%width, i/width, color.Gray{Y: q.Quantize(v)})
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
