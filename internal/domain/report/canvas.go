package report

import (
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func hex(s string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
}

var (
	colorWhite   = hex("#FFFFFF")
	colorText    = hex("#1F2937")
	colorMuted   = hex("#4B5563")
	colorSubtle  = hex("#6B7280")
	colorRule    = hex("#E5E7EB")
	colorPanel   = hex("#F9FAFB")
	colorOutline = hex("#374151")
	colorBrand   = hex("#2563EB")
)

// canvas draws on a go-chart PNG renderer in pixel coordinates. The DPI is
// pinned to 72 so font sizes are pixels.
type canvas struct {
	r      chart.Renderer
	width  int
	height int
}

func newCanvas(width, height int) (*canvas, error) {
	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, err
	}
	r.SetDPI(72)
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetFont(font)

	c := &canvas{r: r, width: width, height: height}
	c.fillRect(0, 0, width, height, colorWhite)
	return c, nil
}

func px(v float64) int { return int(math.Round(v)) }

func (c *canvas) rectPath(x, y, w, h int) {
	c.r.MoveTo(x, y)
	c.r.LineTo(x+w, y)
	c.r.LineTo(x+w, y+h)
	c.r.LineTo(x, y+h)
	c.r.Close()
}

func (c *canvas) fillRect(x, y, w, h int, col drawing.Color) {
	c.r.SetFillColor(col)
	c.rectPath(x, y, w, h)
	c.r.Fill()
}

func (c *canvas) panel(x, y, w, h int, fill, border drawing.Color) {
	c.r.SetFillColor(fill)
	c.r.SetStrokeColor(border)
	c.r.SetStrokeWidth(1)
	c.rectPath(x, y, w, h)
	c.r.FillStroke()
}

func (c *canvas) line(x1, y1, x2, y2 int, col drawing.Color, width float64) {
	c.r.SetStrokeColor(col)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(x1, y1)
	c.r.LineTo(x2, y2)
	c.r.Stroke()
}

func (c *canvas) polyline(pts [][2]int, col drawing.Color, width float64) {
	if len(pts) < 2 {
		return
	}
	c.r.SetStrokeColor(col)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		c.r.LineTo(p[0], p[1])
	}
	c.r.Stroke()
}

func (c *canvas) ellipse(cx, cy int, rx, ry float64, col drawing.Color, width float64) {
	c.r.SetStrokeColor(col)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(cx+px(rx), cy)
	c.r.ArcTo(cx, cy, rx, ry, 0, 2*math.Pi)
	c.r.Stroke()
}

func (c *canvas) dot(cx, cy int, radius float64, col drawing.Color) {
	c.r.SetFillColor(col)
	c.r.Circle(radius, cx, cy)
	c.r.Fill()
}

func (c *canvas) setFont(size float64, col drawing.Color) {
	c.r.SetFontSize(size)
	c.r.SetFontColor(col)
}

// text draws s with its baseline at y.
func (c *canvas) text(s string, x, y int, size float64, col drawing.Color) {
	c.setFont(size, col)
	c.r.Text(s, x, y)
}

func (c *canvas) textWidth(s string, size float64) int {
	c.r.SetFontSize(size)
	return c.r.MeasureText(s).Width()
}

func (c *canvas) textCenter(s string, cx, y int, size float64, col drawing.Color) {
	c.text(s, cx-c.textWidth(s, size)/2, y, size, col)
}

func (c *canvas) textRight(s string, right, y int, size float64, col drawing.Color) {
	c.text(s, right-c.textWidth(s, size), y, size, col)
}

func (c *canvas) save(w io.Writer) error {
	return c.r.Save(w)
}
