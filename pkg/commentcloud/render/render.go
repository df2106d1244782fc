// Package render draws word-frequency tables as word-cloud images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/cognicore/commentcloud/pkg/commentcloud/freq"
)

// Renderer turns word weights into an image.
type Renderer interface {
	Render(words map[string]int) (image.Image, error)
}

// Options describes the canvas and font scaling.
type Options struct {
	Width           int
	Height          int
	MaxWords        int
	RelativeScaling float64
	MinFontSize     int
	MaxFontSize     int
	Background      color.Color
	FontPath        string
}

// DefaultOptions returns a 1024x512 white canvas with at most 64 words.
func DefaultOptions() Options {
	return Options{
		Width:           1024,
		Height:          512,
		MaxWords:        64,
		RelativeScaling: 0.8,
		MinFontSize:     10,
		MaxFontSize:     128,
		Background:      color.White,
	}
}

// weightScale is the weight given to the most common word.
const weightScale = 1000

// Weights keeps the maxWords most common entries and maps their counts to
// font weights. relativeScaling 1 makes weights proportional to counts,
// 0 makes every word the same size.
func Weights(entries []freq.Entry, maxWords int, relativeScaling float64) map[string]int {
	if maxWords > 0 && len(entries) > maxWords {
		entries = entries[:maxWords]
	}
	var top int64
	for _, e := range entries {
		if e.Count > top {
			top = e.Count
		}
	}

	rs := math.Min(math.Max(relativeScaling, 0), 1)
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		if e.Count <= 0 {
			continue
		}
		ratio := float64(e.Count) / float64(top)
		w := int(math.Round(weightScale * (rs*ratio + (1 - rs))))
		out[e.Word] = max(w, 1)
	}
	return out
}

// Blank returns a canvas filled with the background colour.
func Blank(opts Options) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	return img
}

// ParseHexColor parses "#rrggbb" or "#rgb".
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
