package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/wallcycle/internal/config"
	"github.com/genricoloni/wallcycle/internal/domain"
	"go.uber.org/zap"
)

// DirectoryType is the type tag of directory backed sources
const DirectoryType = "directory"

const rootFolderKey = "root_folder"

var imageExtensions = []string{".png", ".bmp", ".jpg", ".jpeg"}

// Directory serves every image found below a root folder.
// Locators are absolute file paths.
type Directory struct {
	logger   *zap.Logger
	executor domain.Executor
	name     string
	root     string
}

// NewDirectory creates a directory source
func NewDirectory(logger *zap.Logger, exec domain.Executor, name, root string) *Directory {
	return &Directory{
		logger:   logger,
		executor: exec,
		name:     name,
		root:     filepath.Clean(root),
	}
}

// NewDirectoryType returns the registration of directory sources for the config store
func NewDirectoryType(logger *zap.Logger, exec domain.Executor) config.SourceType {
	return config.SourceType{
		Name: DirectoryType,
		Parse: func(name string, options map[string]string) (domain.ImageSource, error) {
			root, ok := options[rootFolderKey]
			if !ok || strings.TrimSpace(root) == "" {
				return nil, &config.MissingOptionError{Section: name, Option: rootFolderKey}
			}
			return NewDirectory(logger, exec, name, root), nil
		},
		Serialize: func(src domain.ImageSource) map[string]string {
			d, ok := src.(*Directory)
			if !ok {
				return nil
			}
			return map[string]string{rootFolderKey: d.root}
		},
	}
}

// Name implements domain.ImageSource
func (d *Directory) Name() string { return d.name }

// Type implements domain.ImageSource
func (d *Directory) Type() string { return DirectoryType }

// Root returns the scanned folder
func (d *Directory) Root() string { return d.root }

// Scan walks the root folder and returns every image file.
// A missing root yields an empty result so the caller can retry.
func (d *Directory) Scan(ctx context.Context) ([]string, error) {
	var found []string
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == d.root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || !hasImageExtension(entry.Name()) {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", d.root, err)
	}

	d.logger.Debug("Directory scanned",
		zap.String("source", d.name),
		zap.String("root", d.root),
		zap.Int("images", len(found)))
	return found, nil
}

// ReadImage decodes an image file, honouring EXIF orientation
func (d *Directory) ReadImage(locator string) (image.Image, error) {
	img, err := imaging.Open(locator, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", locator, err)
	}
	return img, nil
}

// WriteImage encodes img in the format implied by the locator extension
func (d *Directory) WriteImage(locator string, img image.Image) error {
	if err := imaging.Save(img, locator, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to write image %s: %w", locator, err)
	}
	return nil
}

// DeleteImage removes the image file
func (d *Directory) DeleteImage(locator string) error {
	if err := os.Remove(locator); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	d.logger.Info("Image deleted", zap.String("path", locator))
	return nil
}

// Label returns the path relative to the root, without extension
func (d *Directory) Label(locator string) string {
	rel, err := filepath.Rel(d.root, locator)
	if err != nil {
		rel = filepath.Base(locator)
	}
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

// Reveal shows the image file in the platform file manager
func (d *Directory) Reveal(ctx context.Context, locator string) error {
	return d.executor.RevealInFileManager(ctx, locator)
}

// Equal compares root folders
func (d *Directory) Equal(other domain.ImageSource) bool {
	o, ok := other.(*Directory)
	return ok && o.root == d.root
}

func hasImageExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
