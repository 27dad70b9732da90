// Package plots renders the cohort charts to image files.
package plots

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/cohortscope/internal/utils"
)

// ErrNoData is returned when a chart has nothing to draw.
var ErrNoData = errors.New("no data to plot")

// go-chart sizes are in pixels.
const chartDPI = 96

// Options controls where and how charts are written.
type Options struct {
	Dir    string
	Format string // png or svg
	Bins   int
}

// Renderer writes charts into Options.Dir.
type Renderer struct {
	opt Options
	log *zap.Logger
}

// NewRenderer validates opt and fills defaults.
func NewRenderer(opt Options, log *zap.Logger) (*Renderer, error) {
	if opt.Format == "" {
		opt.Format = "png"
	}
	if opt.Format != "png" && opt.Format != "svg" {
		return nil, fmt.Errorf("unsupported chart format %q (use png|svg)", opt.Format)
	}
	if opt.Bins <= 0 {
		opt.Bins = 20
	}
	if opt.Dir == "" {
		opt.Dir = "charts"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{opt: opt, log: log}, nil
}

// Dir reports the output directory.
func (r *Renderer) Dir() string { return r.opt.Dir }

func (r *Renderer) path(name string) string {
	return filepath.Join(r.opt.Dir, name+"."+r.opt.Format)
}

// savePlot writes a gonum plot of the given size in inches.
func (r *Renderer) savePlot(p *plot.Plot, width, height float64, name string) (string, error) {
	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, r.opt.Format)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	path, err := utils.WriteStream(r.path(name), false, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	r.log.Info("chart saved", zap.String("chart", name), zap.String("path", path))
	return path, nil
}

// savePie writes a go-chart pie chart of the given size in inches.
func (r *Renderer) savePie(pc chart.PieChart, width, height float64, name string) (string, error) {
	pc.Width = int(width * chartDPI)
	pc.Height = int(height * chartDPI)
	pc.DPI = chartDPI
	var provider chart.RendererProvider = chart.PNG
	if r.opt.Format == "svg" {
		provider = chart.SVG
	}
	path, err := utils.WriteStream(r.path(name), false, func(w io.Writer) error {
		return pc.Render(provider, w)
	})
	if err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	r.log.Info("chart saved", zap.String("chart", name), zap.String("path", path))
	return path, nil
}

// hex parses an RRGGBB color.
func hex(s string) drawing.Color {
	return drawing.ColorFromHex(s)
}

// translucent returns c with its alpha set to a.
func translucent(c drawing.Color, a uint8) color.Color {
	return c.WithAlpha(a)
}
