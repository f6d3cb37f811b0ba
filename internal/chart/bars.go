// Package chart renders the profit/loss series as inline SVG.
package chart

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"billbook/internal/core"
)

// Defaults for the report charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 32.0
	DefaultTicks   = 5
)

// Opts customises ProfitLossBars.
type Opts struct {
	Title       string
	Width       int
	Height      int
	Padding     float64
	TickCount   int
	ProfitColor string
	LossColor   string
	AxisColor   string
	GridColor   string
	// FormatTick renders axis values; defaults to a compact number.
	FormatTick func(float64) string
}

func (o Opts) withDefaults() Opts {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.TickCount <= 0 {
		o.TickCount = DefaultTicks
	}
	o.ProfitColor = fallback(o.ProfitColor, "#16a34a")
	o.LossColor = fallback(o.LossColor, "#dc2626")
	o.AxisColor = fallback(o.AxisColor, "#475569")
	o.GridColor = fallback(o.GridColor, "#cbd5e1")
	o.Title = fallback(o.Title, "Profit and loss")
	if o.FormatTick == nil {
		o.FormatTick = compact
	}
	return o
}

// ProfitLossBars draws one group per bucket with a profit bar and a loss bar.
// An empty series renders an empty-state SVG.
func ProfitLossBars(points []core.PeriodPoint, opts Opts) template.HTML {
	o := opts.withDefaults()
	w, h := float64(o.Width), float64(o.Height)
	chartW := w - 2*o.Padding
	chartH := h - 2*o.Padding

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-label="%s" class="chart">`,
		o.Width, o.Height, esc(o.Title))
	fmt.Fprintf(&b, `<title>%s</title>`, esc(o.Title))

	if len(points) == 0 || chartW <= 0 || chartH <= 0 {
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="12" text-anchor="middle">No data yet</text>`,
			w/2, h/2, o.AxisColor)
		b.WriteString(`</svg>`)
		return template.HTML(b.String())
	}

	maxVal := 0.0
	for _, p := range points {
		maxVal = math.Max(maxVal, math.Max(p.Profit, p.Loss))
	}
	if maxVal == 0 {
		maxVal = 1
	}
	bottom := o.Padding + chartH
	scale := chartH / maxVal

	for i := 0; i <= o.TickCount; i++ {
		ratio := float64(i) / float64(o.TickCount)
		y := bottom - ratio*chartH
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4"></line>`,
			o.Padding, y, o.Padding+chartW, y, o.GridColor)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`,
			o.Padding-4, y+3, o.AxisColor, esc(o.FormatTick(maxVal*ratio)))
	}
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s"></line>`,
		o.Padding, bottom, o.Padding+chartW, bottom, o.AxisColor)

	group := chartW / float64(len(points))
	bar := group / 3
	for i, p := range points {
		x := o.Padding + float64(i)*group
		label := esc(p.Label)
		if ph := p.Profit * scale; ph > 0 {
			fmt.Fprintf(&b, `<rect class="profit" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s profit %s</title></rect>`,
				x+bar*0.4, bottom-ph, bar, ph, o.ProfitColor, label, esc(o.FormatTick(p.Profit)))
		}
		if lh := p.Loss * scale; lh > 0 {
			fmt.Fprintf(&b, `<rect class="loss" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s loss %s</title></rect>`,
				x+bar*1.6, bottom-lh, bar, lh, o.LossColor, label, esc(o.FormatTick(p.Loss)))
		}
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`,
			x+group/2, bottom+14, o.AxisColor, label)
	}

	legendY := math.Max(o.Padding-12, 12)
	fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, o.Padding, legendY-8, o.ProfitColor)
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">Profit</text>`, o.Padding+14, legendY, o.AxisColor)
	fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, o.Padding+70, legendY-8, o.LossColor)
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">Loss</text>`, o.Padding+84, legendY, o.AxisColor)

	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

func compact(v float64) string {
	switch abs := math.Abs(v); {
	case abs >= 1e7:
		return fmt.Sprintf("%.1fCr", v/1e7)
	case abs >= 1e5:
		return fmt.Sprintf("%.1fL", v/1e5)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func esc(s string) string {
	return template.HTMLEscapeString(s)
}
