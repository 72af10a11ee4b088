package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/domain/progress"
)

// Canvas geometry. The page is 210 mm wide and drawn at 4 px per mm.
const (
	PixelsPerMM  = 4
	CanvasWidth  = 210 * PixelsPerMM
	margin       = 40
	sectionGap   = 24
	contentWidth = CanvasWidth - 2*margin
)

const (
	dateLayout      = "02/01/2006"
	timestampLayout = "02/01/2006 15:04"
)

type section interface {
	name() string
	height() int
	draw(c *canvas, top int)
}

// Layout is the ordered list of report sections. Its height is known before
// anything is drawn.
type Layout struct {
	Width    int
	sections []section
}

func (l *Layout) Height() int {
	h := 2 * margin
	for i, s := range l.sections {
		if i > 0 {
			h += sectionGap
		}
		h += s.height()
	}
	return h
}

// Sections names the sections in drawing order.
func (l *Layout) Sections() []string {
	out := make([]string, len(l.sections))
	for i, s := range l.sections {
		out[i] = s.name()
	}
	return out
}

// BuildLayout arranges the report for in. Charts are drawn in canonical
// order and only when selected and renderable.
func BuildLayout(in Input, brand string, loc *time.Location) *Layout {
	if loc == nil {
		loc = time.UTC
	}
	m := in.Latest
	l := &Layout{Width: CanvasWidth}

	l.sections = append(l.sections,
		&headerSection{brand: brand, title: "Relatório de Medições Corporais"},
		&infoSection{
			studentName: in.Student.Name,
			age:         progress.Age(in.Student.DateOfBirth.Time, in.Now.In(loc)),
			date:        m.MeasuredAt.In(loc).Format(dateLayout),
		},
		&metricsSection{m: m},
		&bodySection{m: m, gender: in.Gender},
		newDetailsSection(m),
	)
	if m.Notes != nil && strings.TrimSpace(*m.Notes) != "" {
		l.sections = append(l.sections, &notesSection{lines: clip(wrap(*m.Notes, notesRunesPerLine), notesMaxLines)})
	}
	if cs := chartSeries(in, loc); len(cs) > 0 {
		l.sections = append(l.sections, &chartsSection{series: cs})
	}
	l.sections = append(l.sections, &footerSection{brand: brand, generated: in.Now.In(loc).Format(timestampLayout)})
	return l
}

func chartSeries(in Input, loc *time.Location) []progress.Series {
	if len(in.Charts) == 0 || len(in.History) < 2 {
		return nil
	}
	want := make(map[progress.ChartKey]bool, len(in.Charts))
	for _, k := range in.Charts {
		want[k] = true
	}
	var out []progress.Series
	for _, k := range progress.AllChartKeys {
		if !want[k] {
			continue
		}
		if s := progress.ExtractSeries(k, in.History, loc); s.Renderable() {
			out = append(out, s)
		}
	}
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func withUnit(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return num(*v) + " " + unit
}

type headerSection struct {
	brand, title string
}

func (s *headerSection) name() string { return "header" }
func (s *headerSection) height() int  { return 110 }

func (s *headerSection) draw(c *canvas, top int) {
	c.textCenter(s.brand, CanvasWidth/2, top+44, 32, colorBrand)
	c.textCenter(s.title, CanvasWidth/2, top+82, 20, colorMuted)
	c.line(margin, top+108, CanvasWidth-margin, top+108, colorRule, 2)
}

type infoSection struct {
	studentName string
	age         int
	date        string
}

func (s *infoSection) name() string { return "info" }
func (s *infoSection) height() int  { return 84 }

func (s *infoSection) draw(c *canvas, top int) {
	c.panel(margin, top, contentWidth, s.height(), colorPanel, colorRule)
	cols := [][2]string{
		{"Nome", s.studentName},
		{"Idade", fmt.Sprintf("%d anos", s.age)},
		{"Data da Medição", s.date},
	}
	w := contentWidth / len(cols)
	for i, col := range cols {
		x := margin + 20 + i*w
		c.text(col[0], x, top+32, 14, colorSubtle)
		c.text(col[1], x, top+62, 18, colorText)
	}
}

type metricsSection struct {
	m *measurement.Measurement
}

func (s *metricsSection) name() string { return "metrics" }
func (s *metricsSection) height() int  { return 110 }

func (s *metricsSection) draw(c *canvas, top int) {
	cards := []struct {
		label, value, bg, fg string
	}{
		{"PESO", num(s.m.Weight) + " kg", "#EFF6FF", "#1E40AF"},
		{"ALTURA", num(s.m.Height) + " cm", "#F0FDF4", "#166534"},
		{"IMC", progress.FormatBMI(s.m.Weight, s.m.Height), "#FAF5FF", "#6B21A8"},
		{"% GORDURA", num(s.m.BodyFatPercentage) + "%", "#FEF2F2", "#991B1B"},
	}
	const gap = 16
	w := (contentWidth - gap*(len(cards)-1)) / len(cards)
	for i, card := range cards {
		x := margin + i*(w+gap)
		c.panel(x, top, w, s.height(), hex(card.bg), hex(card.bg))
		c.textCenter(card.label, x+w/2, top+38, 14, hex(card.fg))
		c.textCenter(card.value, x+w/2, top+80, 28, hex(card.fg))
	}
}

type bodySection struct {
	m      *measurement.Measurement
	gender Gender
}

func (s *bodySection) name() string { return "body" }
func (s *bodySection) height() int  { return bodyBoxHeight }

func (s *bodySection) draw(c *canvas, top int) {
	left := (CanvasWidth - bodyBoxWidth) / 2
	at := func(x, y float64) (int, int) { return left + px(x), top + px(y) }

	c.panel(left, top, bodyBoxWidth, bodyBoxHeight, colorPanel, colorRule)

	o := outlineFor(s.gender)
	hx, hy := at(o.head.cx, o.head.cy)
	c.ellipse(hx, hy, o.head.r, o.head.r, colorOutline, 2)
	for _, l := range o.lines {
		x1, y1 := at(l.x1, l.y1)
		x2, y2 := at(l.x2, l.y2)
		c.line(x1, y1, x2, y2, colorOutline, 2)
	}
	for _, e := range o.ellipses {
		cx, cy := at(e.cx, e.cy)
		c.ellipse(cx, cy, e.rx, e.ry, colorOutline, 2)
	}

	for _, lbl := range bodyLabels(s.m, s.gender) {
		if lbl.value == nil {
			continue
		}
		text := fmt.Sprintf("%s: %scm", lbl.text, num(*lbl.value))
		ax, ay := at(lbl.anchor[0], lbl.anchor[1])
		_, ty := at(0, lbl.y)
		if lbl.left {
			end := left - 16
			c.textRight(text, end-6, ty+5, 14, colorText)
			c.line(end, ty, ax, ay, colorSubtle, 1)
		} else {
			start := left + bodyBoxWidth + 16
			c.text(text, start+6, ty+5, 14, colorText)
			c.line(start, ty, ax, ay, colorSubtle, 1)
		}
	}
}

type detailRow struct{ label, value string }

type detailsSection struct {
	columns [3][]detailRow
}

var detailHeadings = [3]string{"Medidas Básicas", "Tronco", "Membros"}

func newDetailsSection(m *measurement.Measurement) *detailsSection {
	s := &detailsSection{}
	s.columns[0] = []detailRow{
		{"Peso:", num(m.Weight) + " kg"},
		{"Altura:", num(m.Height) + " cm"},
		{"IMC:", progress.FormatBMI(m.Weight, m.Height)},
		{"% Gordura:", num(m.BodyFatPercentage) + "%"},
	}
	add := func(col int, label string, v *float64) {
		if v != nil {
			s.columns[col] = append(s.columns[col], detailRow{label, withUnit(v, "cm")})
		}
	}
	add(1, "Peito:", m.ChestCircumference)
	add(1, "Cintura:", m.WaistCircumference)
	add(1, "Quadril:", m.HipCircumference)
	add(2, "Braço E:", m.ArmCircumferenceLeft)
	add(2, "Braço D:", m.ArmCircumferenceRight)
	add(2, "Coxa E:", m.ThighCircumferenceLeft)
	add(2, "Coxa D:", m.ThighCircumferenceRight)
	add(2, "Panturrilha E:", m.CalfCircumferenceLeft)
	add(2, "Panturrilha D:", m.CalfCircumferenceRight)
	return s
}

const detailRowHeight = 30

func (s *detailsSection) rows() int {
	n := 0
	for _, col := range s.columns {
		n = max(n, len(col))
	}
	return n
}

func (s *detailsSection) name() string { return "details" }
func (s *detailsSection) height() int  { return 80 + s.rows()*detailRowHeight }

func (s *detailsSection) draw(c *canvas, top int) {
	c.text("Medições Detalhadas", margin, top+24, 20, colorText)

	const gap = 24
	w := (contentWidth - 2*gap) / 3
	for i, rows := range s.columns {
		x := margin + i*(w+gap)
		c.text(detailHeadings[i], x, top+62, 16, colorMuted)
		for j, row := range rows {
			base := top + 62 + (j+1)*detailRowHeight
			c.text(row.label, x, base, 14, colorSubtle)
			c.textRight(row.value, x+w, base, 14, colorText)
			c.line(x, base+8, x+w, base+8, colorRule, 1)
		}
	}
}

const (
	notesRunesPerLine = 95
	notesLineHeight   = 22
	notesMaxLines     = 30
)

type notesSection struct {
	lines []string
}

func (s *notesSection) name() string { return "notes" }
func (s *notesSection) height() int  { return 40 + 24 + len(s.lines)*notesLineHeight }

func (s *notesSection) draw(c *canvas, top int) {
	c.text("Observações", margin, top+22, 18, colorText)
	box := top + 36
	c.panel(margin, box, contentWidth, s.height()-36, colorPanel, colorPanel)
	for i, line := range s.lines {
		c.text(line, margin+14, box+12+(i+1)*notesLineHeight-6, 15, colorMuted)
	}
}

// wrap breaks text into lines of at most limit runes, on spaces where
// possible. Explicit newlines are kept.
func wrap(text string, limit int) []string {
	var out []string
	for _, para := range strings.Split(strings.TrimSpace(text), "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			for utf8.RuneCountInString(word) > limit {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				r := []rune(word)
				out = append(out, string(r[:limit]))
				word = string(r[limit:])
			}
			switch {
			case line == "":
				line = word
			case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= limit:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		out = append(out, line)
	}
	return out
}

// clip keeps at most n lines, marking the cut with an ellipsis on the
// last one.
func clip(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	out := append([]string(nil), lines[:n]...)
	last := []rune(out[n-1])
	if len(last) >= notesRunesPerLine {
		last = last[:notesRunesPerLine-1]
	}
	out[n-1] = string(last) + "…"
	return out
}

// Evolution charts keep the 400x180 geometry of the on-screen chart,
// scaled to the content width.
const (
	chartViewWidth  = 400
	chartViewHeight = 180
	chartScale      = float64(contentWidth) / chartViewWidth
	chartTitleH     = 34
	chartGap        = 20
)

var chartPlotArea = progress.PlotArea{Left: 20, Top: 40, Width: 360, Height: 120}

type chartsSection struct {
	series []progress.Series
}

func (s *chartsSection) name() string { return "charts" }

func chartBlockHeight() int {
	return chartTitleH + px(chartViewHeight*chartScale) + chartGap
}

func (s *chartsSection) height() int {
	return 48 + len(s.series)*chartBlockHeight()
}

func (s *chartsSection) draw(c *canvas, top int) {
	c.text("Gráficos de Evolução", margin, top+26, 20, colorText)
	c.line(margin, top+38, CanvasWidth-margin, top+38, colorRule, 1)

	y := top + 48
	for _, series := range s.series {
		drawSeries(c, series, margin, y)
		y += chartBlockHeight()
	}
}

func drawSeries(c *canvas, s progress.Series, left, top int) {
	c.text(s.Label, left, top+22, 16, colorText)

	boxTop := top + chartTitleH
	at := func(x, y float64) (int, int) { return left + px(x*chartScale), boxTop + px(y*chartScale) }

	c.panel(left, boxTop, contentWidth, px(chartViewHeight*chartScale), colorPanel, colorPanel)
	for gx := 40.0; gx < chartViewWidth; gx += 40 {
		x1, y1 := at(gx, 0)
		_, y2 := at(gx, chartViewHeight)
		c.line(x1, y1, x1, y2, colorRule, 0.5*chartScale)
	}
	for gy := 18.0; gy < chartViewHeight; gy += 18 {
		x1, y1 := at(0, gy)
		x2, _ := at(chartViewWidth, gy)
		c.line(x1, y1, x2, y1, colorRule, 0.5*chartScale)
	}

	color := hex(s.Color)
	pts := progress.PlotPoints(s, chartPlotArea)
	line := make([][2]int, len(pts))
	for i, p := range pts {
		x, y := at(p.X, p.Y)
		line[i] = [2]int{x, y}
	}
	c.polyline(line, color, 2*chartScale)

	for i, p := range pts {
		x, y := line[i][0], line[i][1]
		c.dot(x, y, 3*chartScale, color)
		_, ly := at(p.X, p.Y-8)
		c.textCenter(num(s.Points[i].Value)+s.Unit, x, ly, 10*chartScale, colorOutline)
		_, dy := at(p.X, 175)
		c.textCenter(s.Points[i].Date, x, dy, 8*chartScale, colorSubtle)
	}
}

type footerSection struct {
	brand, generated string
}

func (s *footerSection) name() string { return "footer" }
func (s *footerSection) height() int  { return 72 }

func (s *footerSection) draw(c *canvas, top int) {
	c.line(margin, top, CanvasWidth-margin, top, colorRule, 1)
	c.textCenter("Relatório gerado em "+s.generated, CanvasWidth/2, top+32, 14, colorSubtle)
	c.textCenter(s.brand+" - Sistema de Gerenciamento para Personal Trainers", CanvasWidth/2, top+56, 14, colorSubtle)
}
