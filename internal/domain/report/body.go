package report

import "github.com/fittracker/fittracker/internal/domain/measurement"

// Body outlines are drawn in a 250x400 box.
const (
	bodyBoxWidth  = 250
	bodyBoxHeight = 400
)

type circleShape struct{ cx, cy, r float64 }
type lineShape struct{ x1, y1, x2, y2 float64 }
type ellipseShape struct{ cx, cy, rx, ry float64 }

type outline struct {
	head     circleShape
	lines    []lineShape
	ellipses []ellipseShape
}

var maleOutline = outline{
	head: circleShape{125, 30, 20},
	lines: []lineShape{
		{125, 50, 125, 65}, // neck
		{100, 65, 150, 65}, // shoulders
		{100, 65, 85, 140}, // arms
		{150, 65, 165, 140},
		{110, 65, 110, 180}, // torso
		{140, 65, 140, 180},
		{115, 190, 110, 320}, // legs
		{135, 190, 140, 320},
	},
	ellipses: []ellipseShape{
		{125, 95, 30, 15},  // chest
		{125, 155, 25, 12}, // waist
		{125, 190, 28, 15}, // hips
		{115, 240, 12, 25}, // thighs
		{135, 240, 12, 25},
		{110, 340, 10, 20}, // calves
		{140, 340, 10, 20},
	},
}

var femaleOutline = outline{
	head: circleShape{125, 30, 18},
	lines: []lineShape{
		{125, 48, 125, 62},
		{105, 62, 145, 62},
		{105, 62, 92, 135},
		{145, 62, 158, 135},
		{112, 62, 112, 170},
		{138, 62, 138, 170},
		{117, 185, 112, 320},
		{133, 185, 138, 320},
	},
	ellipses: []ellipseShape{
		{125, 90, 28, 14},
		{125, 150, 20, 10},
		{125, 185, 32, 18},
		{117, 240, 15, 26},
		{133, 240, 15, 26},
		{112, 340, 12, 20},
		{138, 340, 12, 20},
	},
}

func outlineFor(g Gender) outline {
	if g == Female {
		return femaleOutline
	}
	return maleOutline
}

// bodyLabel annotates one circumference. left places the text on the left
// of the figure; anchor is the point on the outline it points at.
type bodyLabel struct {
	text   string
	value  *float64
	left   bool
	y      float64
	anchor [2]float64
}

func bodyLabels(m *measurement.Measurement, g Gender) []bodyLabel {
	o := outlineFor(g)
	chest, waist, hip := o.ellipses[0], o.ellipses[1], o.ellipses[2]
	thighL, thighR := o.ellipses[3], o.ellipses[4]
	calfL, calfR := o.ellipses[5], o.ellipses[6]
	armL, armR := o.lines[2], o.lines[3]

	mid := func(l lineShape) [2]float64 { return [2]float64{(l.x1 + l.x2) / 2, (l.y1 + l.y2) / 2} }

	return []bodyLabel{
		{"Peito", m.ChestCircumference, true, chest.cy - 15, [2]float64{chest.cx - chest.rx, chest.cy}},
		{"Braço E", m.ArmCircumferenceLeft, true, 115, mid(armL)},
		{"Cintura", m.WaistCircumference, true, waist.cy, [2]float64{waist.cx - waist.rx, waist.cy}},
		{"Coxa E", m.ThighCircumferenceLeft, true, thighL.cy, [2]float64{thighL.cx - thighL.rx, thighL.cy}},
		{"Panturrilha E", m.CalfCircumferenceLeft, true, calfL.cy, [2]float64{calfL.cx - calfL.rx, calfL.cy}},
		{"Braço D", m.ArmCircumferenceRight, false, 115, mid(armR)},
		{"Quadril", m.HipCircumference, false, hip.cy, [2]float64{hip.cx + hip.rx, hip.cy}},
		{"Coxa D", m.ThighCircumferenceRight, false, thighR.cy, [2]float64{thighR.cx + thighR.rx, thighR.cy}},
		{"Panturrilha D", m.CalfCircumferenceRight, false, calfR.cy, [2]float64{calfR.cx + calfR.rx, calfR.cy}},
	}
}
