package render

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/psykhi/wordclouds"

	"github.com/cognicore/commentcloud/pkg/commentcloud/internalerr"
)

var palette = []color.Color{
	color.RGBA{0x1b, 0x1b, 0x1b, 0xff},
	color.RGBA{0x48, 0x48, 0x4e, 0xff},
	color.RGBA{0x59, 0x2c, 0x8a, 0xff},
	color.RGBA{0x1f, 0x5f, 0x8b, 0xff},
	color.RGBA{0x2e, 0x7d, 0x32, 0xff},
	color.RGBA{0xc6, 0x28, 0x28, 0xff},
}

// WordCloud renders with github.com/psykhi/wordclouds.
type WordCloud struct {
	opts Options
}

var _ Renderer = (*WordCloud)(nil)

// NewWordCloud checks the font file and returns a renderer.
func NewWordCloud(opts Options) (*WordCloud, error) {
	if opts.FontPath == "" {
		return nil, fmt.Errorf("%w: no font configured", internalerr.ErrConfigMissing)
	}
	if _, err := os.Stat(opts.FontPath); err != nil {
		return nil, fmt.Errorf("%w: font %s: %v", internalerr.ErrConfigMissing, opts.FontPath, err)
	}
	return &WordCloud{opts: withDefaults(opts)}, nil
}

// withDefaults fills unset sizes and colours from DefaultOptions.
func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.MaxWords <= 0 {
		opts.MaxWords = def.MaxWords
	}
	if opts.MinFontSize <= 0 {
		opts.MinFontSize = def.MinFontSize
	}
	if opts.MaxFontSize <= 0 {
		opts.MaxFontSize = def.MaxFontSize
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}
	return opts
}

// Render draws the words. An empty map gives a blank canvas.
func (r *WordCloud) Render(words map[string]int) (img image.Image, err error) {
	if len(words) == 0 {
		return Blank(r.opts), nil
	}

	// wordclouds panics when the font cannot be parsed
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("render word cloud: %v", p)
		}
	}()

	wc := wordclouds.NewWordcloud(words,
		wordclouds.FontFile(r.opts.FontPath),
		wordclouds.Width(r.opts.Width),
		wordclouds.Height(r.opts.Height),
		wordclouds.FontMinSize(r.opts.MinFontSize),
		wordclouds.FontMaxSize(r.opts.MaxFontSize),
		wordclouds.BackgroundColor(r.opts.Background),
		wordclouds.Colors(palette),
		wordclouds.RandomPlacement(false),
	)
	return wc.Draw(), nil
}
