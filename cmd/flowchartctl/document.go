package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kode4food/flowchart/pkg/api"
)

// defaultLessonID names documents that carry no id of their own
const defaultLessonID api.LessonID = "lesson"

var (
	ErrReadDocument  = errors.New("failed to read lesson document")
	ErrParseDocument = errors.New("failed to parse lesson document")
	ErrWriteDocument = errors.New("failed to write lesson document")
)

// loadLesson reads a lesson document. JSON is a subset of YAML, so both
// formats go through the YAML decoder and are then re-read as JSON to pick
// up the lesson's own path decoding
func loadLesson(name string) (*api.Lesson, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadDocument, err)
	}
	return parseLesson(data)
}

func parseLesson(data []byte) (*api.Lesson, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseDocument, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseDocument, err)
	}

	var res api.Lesson
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseDocument, err)
	}
	if res.ID == "" {
		res.ID = defaultLessonID
	}
	return &res, nil
}

// writeValue renders v as indented JSON or as YAML
func writeValue(w io.Writer, v any, asJSON bool) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteDocument, err)
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(json.RawMessage(raw)); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteDocument, err)
		}
		return nil
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteDocument, err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteDocument, err)
	}
	return enc.Close()
}

// saveLesson replaces the document in place, keeping the format implied
// by its extension
func saveLesson(name string, l *api.Lesson) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteDocument, err)
	}
	defer func() { _ = f.Close() }()
	return writeValue(f, l, isJSONFile(name))
}

func isJSONFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
