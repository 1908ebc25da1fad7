package domain

import "fmt"

// StagingFilename is the name of the composited wallpaper written to the temp dir.
// Candidates ending with this name are never drawn.
const StagingFilename = "wallpaper.jpg"

// Field identifies one configurable knob
type Field int

const (
	// FieldSources is the ordered list of image sources
	FieldSources Field = iota
	// FieldHorizontalResolution is the wallpaper width in pixels
	FieldHorizontalResolution
	// FieldVerticalResolution is the wallpaper height in pixels
	FieldVerticalResolution
	// FieldLabelSize is the preferred label font size
	FieldLabelSize
	// FieldRightLabelMargin is the label distance from the right edge in pixels
	FieldRightLabelMargin
	// FieldBottomLabelMargin is the label distance from the bottom edge in pixels
	FieldBottomLabelMargin
	// FieldChangeTime is the number of seconds between two transitions
	FieldChangeTime
	// FieldWidgetScale is the scale factor of the control widget
	FieldWidgetScale
)

var fieldNames = map[Field]string{
	FieldSources:              "sources",
	FieldHorizontalResolution: "horizontal_resolution",
	FieldVerticalResolution:   "vertical_resolution",
	FieldLabelSize:            "label_size",
	FieldRightLabelMargin:     "right_label_margin",
	FieldBottomLabelMargin:    "bottom_label_margin",
	FieldChangeTime:           "seconds_per_transition",
	FieldWidgetScale:          "widget_scale",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// FileID identifies one candidate image: the owning source plus a source-relative locator
type FileID struct {
	Source  ImageSource
	Locator string
}

// Equal reports whether both the source and the locator match.
// Sources are compared by value, not identity.
func (id FileID) Equal(other FileID) bool {
	if id.Locator != other.Locator {
		return false
	}
	if id.Source == nil || other.Source == nil {
		return id.Source == nil && other.Source == nil
	}
	return id.Source.Equal(other.Source)
}

// IsZero reports whether the id refers to nothing
func (id FileID) IsZero() bool {
	return id.Source == nil && id.Locator == ""
}

func (id FileID) String() string {
	if id.Source == nil {
		return id.Locator
	}
	return id.Source.Name() + ":" + id.Locator
}

// ScreenResolution holds the display dimensions
type ScreenResolution struct {
	Width  int
	Height int
}

// Layout describes how a source image becomes a wallpaper
type Layout struct {
	Width        int
	Height       int
	LabelSize    float64
	RightMargin  int
	BottomMargin int
}
