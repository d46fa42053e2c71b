package entity

import (
	"fmt"
	"strings"
)

// Ref is the identity pair extracted from a raw analysis record.
type Ref struct {
	ID   string
	Name string
}

// Normalize derives the canonical id and display name of a raw record.
//
// The id is the record id, else the record name, else "<prefix>_<index>".
// The display name is the record name (or the raw id when the record has no
// name) reduced by [DisplayName]; an empty result falls back to
// "<Kind> <index>".
func Normalize(raw Ref, kind Kind, index int) Ref {
	id := raw.ID
	if id == "" {
		id = raw.Name
	}
	if id == "" {
		id = fmt.Sprintf("%s_%d", kind.Prefix(), index)
	}

	source := raw.Name
	if source == "" {
		source = raw.ID
	}
	name := DisplayName(source)
	if name == "" {
		name = fmt.Sprintf("%s %d", kind.Label(), index)
	}
	return Ref{ID: id, Name: name}
}

// DisplayName shortens a verbose identifier to its last meaningful token:
// path separators are unified to "/", then everything through the last "/",
// the last ":" and the last "." is stripped in turn.
//
//	DisplayName(`src\app\models.py`)        // "py"
//	DisplayName("cls:mod:app.models:User") // "User"
//	DisplayName("mod:app.models")          // "models"
func DisplayName(raw string) string {
	s := strings.ReplaceAll(raw, `\`, "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return s
}
