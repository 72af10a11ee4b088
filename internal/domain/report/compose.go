package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/domain/progress"
	"github.com/fittracker/fittracker/internal/domain/student"
)

// ErrExportFailed wraps every failure after the inputs were accepted.
var ErrExportFailed = errors.New("export failed")

type Input struct {
	Student *student.Student
	Latest  *measurement.Measurement
	Gender  Gender
	Charts  []progress.ChartKey
	History []*measurement.Measurement
	Now     time.Time
}

type Document struct {
	FileName      string
	PDF           []byte
	Pages         int
	ContentHeight float64 // mm
	ArchiveID     string
}

// Composer turns a report Input into a paginated PDF.
type Composer struct {
	brand string
	loc   *time.Location
}

func NewComposer(brand string, loc *time.Location) *Composer {
	if loc == nil {
		loc = time.UTC
	}
	return &Composer{brand: brand, loc: loc}
}

// Rasterize draws the layout into a PNG. It returns once the image is fully
// encoded.
func Rasterize(ctx context.Context, l *Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := newCanvas(l.Width, l.Height())
	if err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}

	top := margin
	for _, s := range l.sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.draw(c, top)
		top += s.height() + sectionGap
	}

	var buf bytes.Buffer
	if err := c.save(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Composer) Compose(ctx context.Context, in Input) (*Document, error) {
	if in.Student == nil {
		return nil, fmt.Errorf("%w: student is required", ErrExportFailed)
	}
	if in.Latest == nil {
		return nil, ErrNoMeasurements
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	layout := BuildLayout(in, c.brand, c.loc)
	png, err := Rasterize(ctx, layout)
	if err != nil {
		return nil, fmt.Errorf("%w: rasterize: %w", ErrExportFailed, err)
	}

	height := float64(layout.Height()) / PixelsPerMM
	offsets := Paginate(height, PageHeightMM)

	var buf bytes.Buffer
	err = WritePDF(&buf, png, height, offsets, PDFMeta{
		Title:   "Relatório de Medições Corporais - " + in.Student.Name,
		Creator: c.brand,
		Created: in.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	return &Document{
		FileName:      FileName(in.Student.Name, in.Now),
		PDF:           buf.Bytes(),
		Pages:         len(offsets),
		ContentHeight: height,
	}, nil
}
