package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Elements Serialization API
// =============================================================================

// MarshalElements converts an element set to indented JSON bytes.
func MarshalElements(e Elements) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(e, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteElements writes an element set as JSON to an io.Writer.
func WriteElements(e Elements, w io.Writer) error {
	return writeJSON(e, w)
}

// WriteElementsFile writes an element set to a JSON file.
// The file is created with 0644 permissions.
func WriteElementsFile(e Elements, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeJSON(e, f)
}

// ReadElements decodes an element set from an io.Reader.
func ReadElements(r io.Reader) (Elements, error) {
	var e Elements
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return Elements{}, fmt.Errorf("decode: %w", err)
	}
	return e, nil
}

// =============================================================================
// Document Serialization API
// =============================================================================

// MarshalDocument converts a Document to compact JSON bytes.
func MarshalDocument(doc Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// UnmarshalDocument decodes a Document from JSON bytes.
func UnmarshalDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
