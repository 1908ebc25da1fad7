package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/genricoloni/wallcycle/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Store holds the typed configuration values and syncs them with a YAML document.
// Values start as defaults and are only ever replaced wholesale by Read.
type Store struct {
	logger    *zap.Logger
	mu        sync.RWMutex
	values    map[domain.Field]any
	types     map[string]SourceType
	typeNames []string
}

// section is one parsed document section, options kept as raw strings
type section struct {
	title   string
	options map[string]string
}

// NewStore creates a store with default values and the given source types registered
func NewStore(logger *zap.Logger, res *domain.ScreenResolution, types ...SourceType) *Store {
	s := &Store{
		logger: logger,
		values: defaultValues(res),
		types:  make(map[string]SourceType, len(types)),
	}
	for _, t := range types {
		if _, dup := s.types[t.Name]; !dup {
			s.typeNames = append(s.typeNames, t.Name)
		}
		s.types[t.Name] = t
	}
	return s
}

// Get returns the current value of a field
func (s *Store) Get(field domain.Field) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if field == domain.FieldSources {
		return s.sourcesLocked()
	}
	return s.values[field]
}

// Set overrides a single value in memory
func (s *Store) Set(field domain.Field, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if srcs, ok := value.([]domain.ImageSource); ok {
		value = slices.Clone(srcs)
	}
	s.values[field] = value
}

// Int returns an integer field, zero if the field holds another type
func (s *Store) Int(field domain.Field) int {
	v, _ := s.Get(field).(int)
	return v
}

// Float returns a float field, zero if the field holds another type
func (s *Store) Float(field domain.Field) float64 {
	v, _ := s.Get(field).(float64)
	return v
}

// Sources returns a copy of the configured source list
func (s *Store) Sources() []domain.ImageSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sourcesLocked()
}

func (s *Store) sourcesLocked() []domain.ImageSource {
	srcs, _ := s.values[domain.FieldSources].([]domain.ImageSource)
	return slices.Clone(srcs)
}

// Read loads the document at path and returns the fields whose value changed.
// A missing file is created from the current values and yields no changes.
// Nothing is modified when an error is returned.
func (s *Store) Read(path string) ([]domain.Field, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("No configuration file found, creating a new one", zap.String("path", path))
		return nil, s.Write(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	sections, err := parseDocument(data)
	if err != nil {
		return nil, err
	}

	next, err := s.decode(sections)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []domain.Field
	for _, bf := range basicFields {
		if s.values[bf.field] != next[bf.field] {
			changed = append(changed, bf.field)
		}
	}
	oldSources, _ := s.values[domain.FieldSources].([]domain.ImageSource)
	if !sourcesEqual(oldSources, next[domain.FieldSources].([]domain.ImageSource)) {
		changed = append(changed, domain.FieldSources)
	}
	s.values = next

	s.logger.Debug("Configuration read",
		zap.String("path", path),
		zap.Stringers("changed", changed))
	return changed, nil
}

// decode turns parsed sections into a complete value set
func (s *Store) decode(sections []section) (map[domain.Field]any, error) {
	idx := slices.IndexFunc(sections, func(sec section) bool { return sec.title == BasicSection })
	if idx < 0 {
		return nil, &MissingSectionError{Section: BasicSection}
	}

	values := make(map[domain.Field]any, len(basicFields)+1)
	basic := sections[idx].options
	for _, bf := range basicFields {
		raw, ok := basic[bf.key]
		if !ok {
			return nil, &MissingOptionError{Section: BasicSection, Option: bf.key}
		}
		v, err := bf.parse(raw)
		if err != nil {
			return nil, &FormatError{Section: BasicSection, Key: bf.key, Msg: "invalid value", Err: err}
		}
		values[bf.field] = v
	}
	for key := range basic {
		if !slices.ContainsFunc(basicFields, func(bf basicField) bool { return bf.key == key }) {
			return nil, &FormatError{Section: BasicSection, Key: key, Msg: "unknown option"}
		}
	}

	sources := make([]domain.ImageSource, 0, len(sections)-1)
	for _, sec := range sections {
		if sec.title == BasicSection {
			continue
		}
		src, err := s.decodeSource(sec)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	values[domain.FieldSources] = sources

	return values, nil
}

func (s *Store) decodeSource(sec section) (domain.ImageSource, error) {
	typeName, ok := sec.options[TypeKey]
	if !ok {
		return nil, &MissingOptionError{Section: sec.title, Option: TypeKey}
	}
	st, ok := s.types[typeName]
	if !ok {
		return nil, &UnknownSourceTypeError{Section: sec.title, Type: typeName, Known: slices.Clone(s.typeNames)}
	}

	options := make(map[string]string, len(sec.options)-1)
	for k, v := range sec.options {
		if k != TypeKey {
			options[k] = v
		}
	}
	return st.Parse(sec.title, options)
}

// Write serializes the basic section followed by one section per source.
// The file is replaced atomically.
func (s *Store) Write(path string) error {
	s.mu.RLock()
	root := &yaml.Node{Kind: yaml.MappingNode}

	basic := &yaml.Node{Kind: yaml.MappingNode}
	for _, bf := range basicFields {
		appendPair(basic, bf.key, bf.format(s.values[bf.field]), "")
	}
	root.Content = append(root.Content, scalar(BasicSection, ""), basic)

	for _, src := range s.sourcesLocked() {
		st, ok := s.types[src.Type()]
		if !ok {
			s.mu.RUnlock()
			return &UnknownSourceTypeError{Section: src.Name(), Type: src.Type(), Known: slices.Clone(s.typeNames)}
		}
		sec := &yaml.Node{Kind: yaml.MappingNode}
		appendPair(sec, TypeKey, st.Name, "!!str")
		options := st.Serialize(src)
		keys := make([]string, 0, len(options))
		for k := range options {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			appendPair(sec, k, options[k], "!!str")
		}
		root.Content = append(root.Content, scalar(src.Name(), "!!str"), sec)
	}
	s.mu.RUnlock()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	err := enc.Encode(root)
	err = multierr.Append(err, enc.Close())
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if err := atomicWrite(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	s.logger.Info("Configuration written", zap.String("path", path))
	return nil
}

// parseDocument splits a YAML document into ordered sections of string options
func parseDocument(data []byte) ([]section, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Err: err}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &FormatError{Msg: "top level must be a mapping of sections"}
	}

	sections := make([]section, 0, len(root.Content)/2)
	seen := make(map[string]bool, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, &FormatError{Msg: fmt.Sprintf("line %d: section names must be scalars", keyNode.Line)}
		}
		title := keyNode.Value
		if seen[title] {
			return nil, &FormatError{Section: title, Msg: "duplicate section"}
		}
		seen[title] = true

		options, err := parseSection(title, valNode)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section{title: title, options: options})
	}
	return sections, nil
}

func parseSection(title string, node *yaml.Node) (map[string]string, error) {
	options := make(map[string]string)
	switch {
	case node.Kind == yaml.ScalarNode && node.Tag == "!!null":
		return options, nil
	case node.Kind != yaml.MappingNode:
		return nil, &FormatError{Section: title, Msg: "section must be a mapping"}
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, &FormatError{Section: title, Msg: fmt.Sprintf("line %d: option names must be scalars", keyNode.Line)}
		}
		if valNode.Kind != yaml.ScalarNode {
			return nil, &FormatError{Section: title, Key: keyNode.Value, Msg: "value must be a scalar"}
		}
		if _, dup := options[keyNode.Value]; dup {
			return nil, &FormatError{Section: title, Key: keyNode.Value, Msg: "duplicate option"}
		}
		options[keyNode.Value] = valNode.Value
	}
	return options, nil
}

func scalar(value, tag string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value, Tag: tag}
}

func appendPair(mapping *yaml.Node, key, value, tag string) {
	mapping.Content = append(mapping.Content, scalar(key, ""), scalar(value, tag))
}

// atomicWrite writes content next to path and renames it into place
func atomicWrite(path string, content []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".wallcycle-tmp-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	_, err = tmp.Write(content)
	err = multierr.Append(err, tmp.Sync())
	err = multierr.Append(err, tmp.Close())
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
