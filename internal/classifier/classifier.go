// Package classifier answers whether an uploaded passport photo shows an
// adult or a child. The pretrained model is packaged as a JSON artifact and
// treated as an opaque capability: load it, call predict, get a label.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Label is a predicted class.
type Label string

const (
	LabelAdult Label = "Adult"
	LabelChild Label = "Child"
)

// Classifier predicts a label for a single image.
type Classifier interface {
	Classify(ctx context.Context, r io.Reader) (Label, error)
}

// artifact is the on-disk model format: a linear model over a downsampled
// grayscale image. InputSize is the side length the image is resized to, so
// Weights holds InputSize*InputSize coefficients.
type artifact struct {
	InputSize int       `json:"input_size"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	// Labels holds [positive, negative] class names.
	Labels []string `json:"labels"`
}

// Model is a Classifier backed by a loaded artifact. The artifact is read
// once at construction and reused for every prediction.
type Model struct {
	art artifact
}

// Load reads and validates a model artifact from path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load model artifact: %w", err)
	}
	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if art.InputSize <= 0 {
		return nil, errors.New("model artifact: input_size must be positive")
	}
	if len(art.Weights) != art.InputSize*art.InputSize {
		return nil, fmt.Errorf("model artifact: expected %d weights, got %d",
			art.InputSize*art.InputSize, len(art.Weights))
	}
	if len(art.Labels) != 2 {
		return nil, errors.New("model artifact: exactly two labels required")
	}
	return &Model{art: art}, nil
}

// Classify decodes a single image and predicts its label. Prediction is
// deterministic for a fixed artifact and image.
func (m *Model) Classify(ctx context.Context, r io.Reader) (Label, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	features := downsampleGray(img, m.art.InputSize)
	score := m.art.Bias
	for i, w := range m.art.Weights {
		score += w * features[i]
	}
	if score >= 0 {
		return Label(m.art.Labels[0]), nil
	}
	return Label(m.art.Labels[1]), nil
}

// downsampleGray resizes img to size x size by box-averaging and returns
// grayscale intensities in [0, 1], row major.
func downsampleGray(img image.Image, size int) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	features := make([]float64, size*size)

	for cy := 0; cy < size; cy++ {
		y0 := bounds.Min.Y + cy*height/size
		y1 := bounds.Min.Y + (cy+1)*height/size
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for cx := 0; cx < size; cx++ {
			x0 := bounds.Min.X + cx*width/size
			x1 := bounds.Min.X + (cx+1)*width/size
			if x1 <= x0 {
				x1 = x0 + 1
			}

			var sum, count float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					r, g, b, _ := img.At(x, y).RGBA()
					// luma approximation over 16-bit channels
					sum += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
					count++
				}
			}
			features[cy*size+cx] = sum / count
		}
	}
	return features
}
