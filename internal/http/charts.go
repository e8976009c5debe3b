package http

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"expensetracker/internal/core"
)

// Placeholder texts shown instead of an empty chart.
const (
	CategoryChartPlaceholder = "Add some expenses to visualize category distribution."
	MonthlyChartPlaceholder  = "Monthly data will appear once expenses span more than one month."
	YearlyChartPlaceholder   = "Yearly trend will activate once your data spans multiple years."
)

var chartPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

const (
	chartWidth  = 480
	chartHeight = 260
	chartPad    = 40
)

// Chart is a rendered SVG or, when there is nothing to draw, a placeholder.
type Chart struct {
	SVG         template.HTML
	Placeholder string
}

// Empty reports whether the placeholder should be shown.
func (c Chart) Empty() bool {
	return c.SVG == ""
}

// PieChart draws category shares with their percentage, starting at twelve
// o'clock and going counterclockwise.
func PieChart(items []core.CategoryAmount) Chart {
	var total int64
	for _, it := range items {
		if it.Amount.Cents > 0 {
			total += it.Amount.Cents
		}
	}
	if total == 0 {
		return Chart{Placeholder: CategoryChartPlaceholder}
	}

	const (
		cx, cy = 130.0, 130.0
		r      = 110.0
	)
	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="chart pie" viewBox="0 0 %d %d" role="img" aria-label="Category-wise spending">`, chartWidth, chartHeight)

	angle := math.Pi / 2
	legendY := 24
	for i, it := range items {
		if it.Amount.Cents <= 0 {
			continue
		}
		color := chartPalette[i%len(chartPalette)]
		share := float64(it.Amount.Cents) / float64(total)
		sweep := share * 2 * math.Pi
		label := template.HTMLEscapeString(it.Name)

		if share >= 1 {
			fmt.Fprintf(&b, `<circle cx="%.0f" cy="%.0f" r="%.0f" fill="%s"><title>%s</title></circle>`, cx, cy, r, color, label)
		} else {
			x1, y1 := cx+r*math.Cos(angle), cy-r*math.Sin(angle)
			x2, y2 := cx+r*math.Cos(angle+sweep), cy-r*math.Sin(angle+sweep)
			large := 0
			if sweep > math.Pi {
				large = 1
			}
			fmt.Fprintf(&b, `<path d="M%.0f,%.0f L%.2f,%.2f A%.0f,%.0f 0 %d,0 %.2f,%.2f Z" fill="%s"><title>%s</title></path>`,
				cx, cy, x1, y1, r, r, large, x2, y2, color, label)
		}
		angle += sweep

		fmt.Fprintf(&b, `<rect x="280" y="%d" width="12" height="12" fill="%s"/>`, legendY-10, color)
		fmt.Fprintf(&b, `<text x="298" y="%d">%s %.1f%%</text>`, legendY, label, share*100)
		legendY += 20
	}
	b.WriteString(`</svg>`)
	return Chart{SVG: template.HTML(b.String())}
}

// BarChart draws one bar per period label.
func BarChart(periods []core.PeriodTotal) Chart {
	if len(periods) == 0 {
		return Chart{Placeholder: MonthlyChartPlaceholder}
	}

	maxCents := maxPeriod(periods)
	plotW := float64(chartWidth - 2*chartPad)
	plotH := float64(chartHeight - 2*chartPad)
	slot := plotW / float64(len(periods))
	barW := slot * 0.7

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="chart bar" viewBox="0 0 %d %d" role="img" aria-label="Monthly totals">`, chartWidth, chartHeight)
	writeAxes(&b)
	for i, p := range periods {
		h := 0.0
		if maxCents > 0 {
			h = plotH * float64(p.Amount.Cents) / float64(maxCents)
		}
		x := float64(chartPad) + float64(i)*slot + (slot-barW)/2
		y := float64(chartHeight-chartPad) - h
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s: %s</title></rect>`,
			x, y, barW, h, chartPalette[0], template.HTMLEscapeString(p.Label), p.Amount.FormatRupees())
		fmt.Fprintf(&b, `<text class="tick" x="%.2f" y="%d" text-anchor="middle">%s</text>`,
			x+barW/2, chartHeight-chartPad+16, template.HTMLEscapeString(p.Label))
	}
	writeMaxLabel(&b, maxCents)
	b.WriteString(`</svg>`)
	return Chart{SVG: template.HTML(b.String())}
}

// LineChart draws period totals as a polyline with a marker per point.
func LineChart(periods []core.PeriodTotal) Chart {
	if len(periods) == 0 {
		return Chart{Placeholder: YearlyChartPlaceholder}
	}

	maxCents := maxPeriod(periods)
	plotW := float64(chartWidth - 2*chartPad)
	plotH := float64(chartHeight - 2*chartPad)
	step := 0.0
	if len(periods) > 1 {
		step = plotW / float64(len(periods)-1)
	}

	points := make([]string, len(periods))
	var marks strings.Builder
	for i, p := range periods {
		x := float64(chartPad) + float64(i)*step
		if len(periods) == 1 {
			x = float64(chartPad) + plotW/2
		}
		y := float64(chartHeight - chartPad)
		if maxCents > 0 {
			y -= plotH * float64(p.Amount.Cents) / float64(maxCents)
		}
		points[i] = fmt.Sprintf("%.2f,%.2f", x, y)
		fmt.Fprintf(&marks, `<circle cx="%.2f" cy="%.2f" r="4" fill="%s"><title>%s: %s</title></circle>`,
			x, y, chartPalette[1], template.HTMLEscapeString(p.Label), p.Amount.FormatRupees())
		fmt.Fprintf(&marks, `<text class="tick" x="%.2f" y="%d" text-anchor="middle">%s</text>`,
			x, chartHeight-chartPad+16, template.HTMLEscapeString(p.Label))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="chart line" viewBox="0 0 %d %d" role="img" aria-label="Yearly expense trend">`, chartWidth, chartHeight)
	writeAxes(&b)
	fmt.Fprintf(&b, `<polyline fill="none" stroke="%s" stroke-width="2" points="%s"/>`, chartPalette[1], strings.Join(points, " "))
	b.WriteString(marks.String())
	writeMaxLabel(&b, maxCents)
	b.WriteString(`</svg>`)
	return Chart{SVG: template.HTML(b.String())}
}

func maxPeriod(periods []core.PeriodTotal) int64 {
	var m int64
	for _, p := range periods {
		if p.Amount.Cents > m {
			m = p.Amount.Cents
		}
	}
	return m
}

func writeAxes(b *strings.Builder) {
	fmt.Fprintf(b, `<line class="axis" x1="%d" y1="%d" x2="%d" y2="%d" stroke="#888"/>`,
		chartPad, chartHeight-chartPad, chartWidth-chartPad, chartHeight-chartPad)
	fmt.Fprintf(b, `<line class="axis" x1="%d" y1="%d" x2="%d" y2="%d" stroke="#888"/>`,
		chartPad, chartPad, chartPad, chartHeight-chartPad)
}

func writeMaxLabel(b *strings.Builder, maxCents int64) {
	fmt.Fprintf(b, `<text class="tick" x="%d" y="%d">%s</text>`,
		chartPad+4, chartPad-8, core.Money{Cents: maxCents}.FormatRupees())
}
