package config

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/genricoloni/wallcycle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// folderSource is a minimal source used to exercise the type registry
type folderSource struct {
	name string
	path string
}

func (f *folderSource) Name() string                           { return f.name }
func (f *folderSource) Type() string                           { return "folder" }
func (f *folderSource) Scan(context.Context) ([]string, error) { return nil, nil }
func (f *folderSource) ReadImage(string) (image.Image, error)  { return nil, errors.New("unused") }
func (f *folderSource) WriteImage(string, image.Image) error   { return nil }
func (f *folderSource) DeleteImage(string) error               { return nil }
func (f *folderSource) Label(locator string) string            { return locator }
func (f *folderSource) Reveal(context.Context, string) error   { return nil }
func (f *folderSource) Equal(other domain.ImageSource) bool {
	o, ok := other.(*folderSource)
	return ok && o.path == f.path
}

var folderType = SourceType{
	Name: "folder",
	Parse: func(name string, options map[string]string) (domain.ImageSource, error) {
		p, ok := options["path"]
		if !ok {
			return nil, &MissingOptionError{Section: name, Option: "path"}
		}
		return &folderSource{name: name, path: p}, nil
	},
	Serialize: func(src domain.ImageSource) map[string]string {
		return map[string]string{"path": src.(*folderSource).path}
	},
}

const validDocument = `config:
  horizontal_resolution: 2560
  vertical_resolution: 1440
  label_size: 24.5
  right_label_margin_pixels: 10
  bottom_label_margin_pixels: 40
  seconds_per_transition: 30
  widget_scale: 1.25
holidays:
  type: folder
  path: /pictures/holidays
family:
  type: folder
  path: /pictures/family
`

func newTestStore() *Store {
	return NewStore(zap.NewNop(), &domain.ScreenResolution{Width: 1920, Height: 1080}, folderType)
}

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStore_Defaults(t *testing.T) {
	tests := []struct {
		name   string
		res    *domain.ScreenResolution
		width  int
		height int
	}{
		{name: "detected resolution", res: &domain.ScreenResolution{Width: 3840, Height: 2160}, width: 3840, height: 2160},
		{name: "no resolution", res: nil, width: 1920, height: 1080},
		{name: "invalid resolution", res: &domain.ScreenResolution{}, width: 1920, height: 1080},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(zap.NewNop(), tt.res)
			assert.Equal(t, tt.width, s.Int(domain.FieldHorizontalResolution))
			assert.Equal(t, tt.height, s.Int(domain.FieldVerticalResolution))
			assert.Equal(t, 30.0, s.Float(domain.FieldLabelSize))
			assert.Equal(t, 20, s.Int(domain.FieldRightLabelMargin))
			assert.Equal(t, 60, s.Int(domain.FieldBottomLabelMargin))
			assert.Equal(t, 30.0, s.Float(domain.FieldChangeTime))
			assert.Equal(t, 1.0, s.Float(domain.FieldWidgetScale))
			assert.Empty(t, s.Sources())
		})
	}
}

func TestStore_Read(t *testing.T) {
	s := newTestStore()
	path := writeDocument(t, validDocument)

	changed, err := s.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Field{
		domain.FieldHorizontalResolution,
		domain.FieldVerticalResolution,
		domain.FieldLabelSize,
		domain.FieldRightLabelMargin,
		domain.FieldBottomLabelMargin,
		domain.FieldWidgetScale,
		domain.FieldSources,
	}, changed)

	assert.Equal(t, 2560, s.Int(domain.FieldHorizontalResolution))
	assert.Equal(t, 24.5, s.Float(domain.FieldLabelSize))
	assert.Equal(t, 1.25, s.Float(domain.FieldWidgetScale))

	sources := s.Sources()
	require.Len(t, sources, 2)
	assert.Equal(t, "holidays", sources[0].Name())
	assert.Equal(t, "family", sources[1].Name())

	// Reading the same document again changes nothing.
	changed, err = s.Read(path)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestStore_ReadReportsSourceEdit(t *testing.T) {
	s := newTestStore()
	path := writeDocument(t, validDocument)
	_, err := s.Read(path)
	require.NoError(t, err)

	edited := strings.Replace(validDocument, "/pictures/family", "/pictures/friends", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	changed, err := s.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Field{domain.FieldSources}, changed)
}

func TestStore_ReadMissingFileBootstraps(t *testing.T) {
	s := newTestStore()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	changed, err := s.Read(path)
	require.NoError(t, err)
	assert.Empty(t, changed)
	require.FileExists(t, path)

	// The written defaults read back without changes.
	fresh := newTestStore()
	changed, err = fresh.Read(path)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestStore_ReadErrors(t *testing.T) {
	tests := []struct {
		name     string
		document string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "missing basic section",
			document: "holidays:\n  type: folder\n  path: /p\n",
			check: func(t *testing.T, err error) {
				var target *MissingSectionError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, BasicSection, target.Section)
			},
		},
		{
			name:     "missing basic option",
			document: strings.Replace(validDocument, "  widget_scale: 1.25\n", "", 1),
			check: func(t *testing.T, err error) {
				var target *MissingOptionError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "widget_scale", target.Option)
			},
		},
		{
			name:     "malformed number",
			document: strings.Replace(validDocument, "2560", "wide", 1),
			check: func(t *testing.T, err error) {
				var target *FormatError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "horizontal_resolution", target.Key)
			},
		},
		{
			name:     "zero interval",
			document: strings.Replace(validDocument, "seconds_per_transition: 30", "seconds_per_transition: 0", 1),
			check:    checkFormatKey("seconds_per_transition"),
		},
		{
			name:     "negative interval",
			document: strings.Replace(validDocument, "seconds_per_transition: 30", "seconds_per_transition: -5", 1),
			check:    checkFormatKey("seconds_per_transition"),
		},
		{
			name:     "nan interval",
			document: strings.Replace(validDocument, "seconds_per_transition: 30", "seconds_per_transition: nan", 1),
			check:    checkFormatKey("seconds_per_transition"),
		},
		{
			name:     "infinite interval",
			document: strings.Replace(validDocument, "seconds_per_transition: 30", "seconds_per_transition: +Inf", 1),
			check:    checkFormatKey("seconds_per_transition"),
		},
		{
			name:     "unknown basic option",
			document: strings.Replace(validDocument, "  widget_scale: 1.25\n", "  widget_scale: 1.25\n  colour: red\n", 1),
			check: func(t *testing.T, err error) {
				var target *FormatError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "colour", target.Key)
			},
		},
		{
			name:     "unknown source type",
			document: strings.Replace(validDocument, "type: folder\n  path: /pictures/family", "type: flickr\n  path: /pictures/family", 1),
			check: func(t *testing.T, err error) {
				var target *UnknownSourceTypeError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "family", target.Section)
				assert.Equal(t, "flickr", target.Type)
				assert.Equal(t, []string{"folder"}, target.Known)
			},
		},
		{
			name:     "source without type",
			document: strings.Replace(validDocument, "  type: folder\n  path: /pictures/family", "  path: /pictures/family", 1),
			check: func(t *testing.T, err error) {
				var target *MissingOptionError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, TypeKey, target.Option)
			},
		},
		{
			name:     "source without type specific option",
			document: strings.Replace(validDocument, "  path: /pictures/family\n", "", 1),
			check: func(t *testing.T, err error) {
				var target *MissingOptionError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "family", target.Section)
				assert.Equal(t, "path", target.Option)
			},
		},
		{
			name:     "duplicate section",
			document: validDocument + "family:\n  type: folder\n  path: /again\n",
			check: func(t *testing.T, err error) {
				var target *FormatError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "family", target.Section)
			},
		},
		{
			name:     "not a mapping",
			document: "- config\n- holidays\n",
			check: func(t *testing.T, err error) {
				var target *FormatError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name:     "invalid yaml",
			document: "config: [unterminated\n",
			check: func(t *testing.T, err error) {
				var target *FormatError
				require.ErrorAs(t, err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			changed, err := s.Read(writeDocument(t, tt.document))

			require.Error(t, err)
			assert.Nil(t, changed)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			tt.check(t, err)

			// Failed reads leave the values untouched.
			assert.Equal(t, 1920, s.Int(domain.FieldHorizontalResolution))
			assert.Empty(t, s.Sources())
		})
	}
}

func checkFormatKey(key string) func(t *testing.T, err error) {
	return func(t *testing.T, err error) {
		var target *FormatError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, key, target.Key)
	}
}

func TestStore_ReadAcceptsFractionalInterval(t *testing.T) {
	s := newTestStore()
	path := writeDocument(t, strings.Replace(validDocument, "seconds_per_transition: 30", "seconds_per_transition: 0.5", 1))

	_, err := s.Read(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.Float(domain.FieldChangeTime))

	// A valid value reads back without a change.
	changed, err := s.Read(path)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestStore_WriteRoundTrip(t *testing.T) {
	s := newTestStore()
	s.Set(domain.FieldChangeTime, 12.5)
	s.Set(domain.FieldSources, []domain.ImageSource{
		&folderSource{name: "zeta", path: "/z"},
		&folderSource{name: "alpha", path: "/a: with colon"},
	})

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, s.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Sections keep their order on disk.
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(data, &doc))
	root := doc.Content[0]
	require.Len(t, root.Content, 6)
	assert.Equal(t, BasicSection, root.Content[0].Value)
	assert.Equal(t, "zeta", root.Content[2].Value)
	assert.Equal(t, "alpha", root.Content[4].Value)

	read := newTestStore()
	changed, err := read.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Field{domain.FieldChangeTime, domain.FieldSources}, changed)
	assert.Equal(t, 12.5, read.Float(domain.FieldChangeTime))

	sources := read.Sources()
	require.Len(t, sources, 2)
	assert.Equal(t, "/a: with colon", sources[1].(*folderSource).path)

	// No temp files are left next to the document.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_SourcesAreCopies(t *testing.T) {
	s := newTestStore()
	s.Set(domain.FieldSources, []domain.ImageSource{&folderSource{name: "a", path: "/a"}})

	sources := s.Sources()
	sources[0] = &folderSource{name: "b", path: "/b"}

	assert.Equal(t, "a", s.Sources()[0].Name())
}

func TestErrors_Messages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{name: "missing section", err: &MissingSectionError{Section: "config"}, contains: "config"},
		{name: "missing option", err: &MissingOptionError{Section: "family", Option: "path"}, contains: "path"},
		{name: "unknown type", err: &UnknownSourceTypeError{Section: "family", Type: "flickr", Known: []string{"folder"}}, contains: "flickr"},
		{name: "format", err: &FormatError{Section: "config", Key: "label_size", Msg: "invalid value", Err: errors.New("bad")}, contains: "label_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.ErrorIs(t, tt.err, ErrInvalidConfig)
		})
	}
}
