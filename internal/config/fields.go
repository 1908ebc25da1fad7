package config

import (
	"fmt"
	"math"
	"strconv"

	"github.com/genricoloni/wallcycle/internal/domain"
)

// BasicSection is the reserved section holding the scalar settings
const BasicSection = "config"

// TypeKey is the option every source section uses to declare its type
const TypeKey = "type"

const (
	defaultWidth        = 1920
	defaultHeight       = 1080
	defaultLabelSize    = 30.0
	defaultRightMargin  = 20
	defaultBottomMargin = 60
	defaultChangeTime   = 30.0
	defaultWidgetScale  = 1.0
)

// basicField binds a scalar field to its document key and codec
type basicField struct {
	field  domain.Field
	key    string
	parse  func(string) (any, error)
	format func(any) string
}

// basicFields is ordered as written to disk
var basicFields = []basicField{
	{domain.FieldHorizontalResolution, "horizontal_resolution", parseInt, formatInt},
	{domain.FieldVerticalResolution, "vertical_resolution", parseInt, formatInt},
	{domain.FieldLabelSize, "label_size", parseFloat, formatFloat},
	{domain.FieldRightLabelMargin, "right_label_margin_pixels", parseInt, formatInt},
	{domain.FieldBottomLabelMargin, "bottom_label_margin_pixels", parseInt, formatInt},
	{domain.FieldChangeTime, "seconds_per_transition", parseInterval, formatFloat},
	{domain.FieldWidgetScale, "widget_scale", parseFloat, formatFloat},
}

func parseInt(s string) (any, error) {
	return strconv.Atoi(s)
}

func formatInt(v any) string {
	n, _ := v.(int)
	return strconv.Itoa(n)
}

func parseFloat(s string) (any, error) {
	return strconv.ParseFloat(s, 64)
}

// parseInterval accepts finite, strictly positive seconds
func parseInterval(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return nil, fmt.Errorf("%q is not a positive number of seconds", s)
	}
	return f, nil
}

func formatFloat(v any) string {
	f, _ := v.(float64)
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SourceType registers one image source variant with the store.
// Adding a source type only requires providing one of these.
type SourceType struct {
	// Name is the value of the "type" option selecting this variant
	Name string

	// Parse builds a source from its section name and options ("type" excluded).
	// Missing options should be reported with MissingOptionError.
	Parse func(name string, options map[string]string) (domain.ImageSource, error)

	// Serialize returns the type specific options of a source
	Serialize func(src domain.ImageSource) map[string]string
}

func defaultValues(res *domain.ScreenResolution) map[domain.Field]any {
	width, height := defaultWidth, defaultHeight
	if res != nil && res.Width > 0 && res.Height > 0 {
		width, height = res.Width, res.Height
	}
	return map[domain.Field]any{
		domain.FieldSources:              []domain.ImageSource{},
		domain.FieldHorizontalResolution: width,
		domain.FieldVerticalResolution:   height,
		domain.FieldLabelSize:            defaultLabelSize,
		domain.FieldRightLabelMargin:     defaultRightMargin,
		domain.FieldBottomLabelMargin:    defaultBottomMargin,
		domain.FieldChangeTime:           defaultChangeTime,
		domain.FieldWidgetScale:          defaultWidgetScale,
	}
}

func sourcesEqual(a, b []domain.ImageSource) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
