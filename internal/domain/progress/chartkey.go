package progress

import (
	"errors"
	"fmt"

	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/platform/apperr"
)

// ChartKey names one chartable measurement field.
type ChartKey int

const (
	Weight ChartKey = iota
	BodyFat
	Chest
	Waist
	Hip
	ArmLeft
	ArmRight
	ThighLeft
	ThighRight
	CalfLeft
	CalfRight
)

// AllChartKeys is the canonical display order.
var AllChartKeys = []ChartKey{
	Weight, BodyFat, Chest, Waist, Hip,
	ArmLeft, ArmRight, ThighLeft, ThighRight, CalfLeft, CalfRight,
}

var ErrUnknownChartKey = fmt.Errorf("%w: unknown chart key", apperr.ErrInvalid)

type chartMeta struct {
	name  string
	label string
	color string
	unit  string
}

var chartMetas = [...]chartMeta{
	Weight:     {"peso", "Evolução do Peso", "#3B82F6", "kg"},
	BodyFat:    {"gordura", "Evolução da % de Gordura", "#EF4444", "%"},
	Chest:      {"peito", "Circunferência do Peito", "#F59E0B", "cm"},
	Waist:      {"cintura", "Circunferência da Cintura", "#10B981", "cm"},
	Hip:        {"quadril", "Circunferência do Quadril", "#8B5CF6", "cm"},
	ArmLeft:    {"bracoEsquerdo", "Circunferência do Braço Esquerdo", "#F97316", "cm"},
	ArmRight:   {"bracoDireito", "Circunferência do Braço Direito", "#FB7185", "cm"},
	ThighLeft:  {"coxaEsquerda", "Circunferência da Coxa Esquerda", "#06B6D4", "cm"},
	ThighRight: {"coxaDireita", "Circunferência da Coxa Direita", "#0EA5E9", "cm"},
	CalfLeft:   {"panturrilhaEsquerda", "Circunferência da Panturrilha Esquerda", "#84CC16", "cm"},
	CalfRight:  {"panturrilhaDireita", "Circunferência da Panturrilha Direita", "#22C55E", "cm"},
}

func (k ChartKey) valid() bool { return k >= Weight && k <= CalfRight }

func (k ChartKey) meta() chartMeta {
	if !k.valid() {
		return chartMeta{name: fmt.Sprintf("ChartKey(%d)", int(k))}
	}
	return chartMetas[k]
}

func (k ChartKey) String() string { return k.meta().name }
func (k ChartKey) Label() string  { return k.meta().label }
func (k ChartKey) Color() string  { return k.meta().color }
func (k ChartKey) Unit() string   { return k.meta().unit }

// ParseChartKey maps the wire name to a key.
func ParseChartKey(s string) (ChartKey, error) {
	for _, k := range AllChartKeys {
		if chartMetas[k].name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownChartKey, s)
}

// ParseChartKeys parses every name, failing on the first unknown one.
func ParseChartKeys(names []string) ([]ChartKey, error) {
	keys := make([]ChartKey, 0, len(names))
	for _, n := range names {
		k, err := ParseChartKey(n)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (k ChartKey) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, errors.New("invalid chart key")
	}
	return []byte(k.String()), nil
}

func (k *ChartKey) UnmarshalText(b []byte) error {
	parsed, err := ParseChartKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value reads the field k charts from m. Required fields are never nil.
func (k ChartKey) Value(m *measurement.Measurement) *float64 {
	switch k {
	case Weight:
		return &m.Weight
	case BodyFat:
		return &m.BodyFatPercentage
	case Chest:
		return m.ChestCircumference
	case Waist:
		return m.WaistCircumference
	case Hip:
		return m.HipCircumference
	case ArmLeft:
		return m.ArmCircumferenceLeft
	case ArmRight:
		return m.ArmCircumferenceRight
	case ThighLeft:
		return m.ThighCircumferenceLeft
	case ThighRight:
		return m.ThighCircumferenceRight
	case CalfLeft:
		return m.CalfCircumferenceLeft
	case CalfRight:
		return m.CalfCircumferenceRight
	default:
		panic(fmt.Sprintf("progress: unhandled chart key %d", int(k)))
	}
}
