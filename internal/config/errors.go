package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is matched by every configuration error (errors.Is)
var ErrInvalidConfig = errors.New("invalid configuration")

// FormatError reports a malformed document or an unparsable value
type FormatError struct {
	Section string
	Key     string
	Msg     string
	Err     error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration format")
	switch {
	case e.Section != "" && e.Key != "":
		fmt.Fprintf(&b, ": option %q in section %q", e.Key, e.Section)
	case e.Section != "":
		fmt.Fprintf(&b, ": section %q", e.Section)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrInvalidConfig }

// MissingSectionError reports that a required section is absent
type MissingSectionError struct {
	Section string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("no section named %q", e.Section)
}

func (e *MissingSectionError) Is(target error) bool { return target == ErrInvalidConfig }

// MissingOptionError reports that a required key is absent from a section
type MissingOptionError struct {
	Section string
	Option  string
}

func (e *MissingOptionError) Error() string {
	return fmt.Sprintf("no option named %q in section %q", e.Option, e.Section)
}

func (e *MissingOptionError) Is(target error) bool { return target == ErrInvalidConfig }

// UnknownSourceTypeError reports a source section whose type is not registered
type UnknownSourceTypeError struct {
	Section string
	Type    string
	Known   []string
}

func (e *UnknownSourceTypeError) Error() string {
	return fmt.Sprintf("invalid source type %q in section %q, possible types are %s",
		e.Type, e.Section, strings.Join(e.Known, ", "))
}

func (e *UnknownSourceTypeError) Is(target error) bool { return target == ErrInvalidConfig }
