package entity

import "fmt"

// Kind is the kind of a source-code entity. The kinds are totally ordered:
// Package < Module < Class < Method < Field.
type Kind int

const (
	KindPackage Kind = iota
	KindModule
	KindClass
	KindMethod
	KindField
)

// NumKinds is the number of entity kinds.
const NumKinds = 5

// Kinds lists every entity kind in level order.
var Kinds = []Kind{KindPackage, KindModule, KindClass, KindMethod, KindField}

var kindNames = [...]string{"package", "module", "class", "method", "field"}

var kindLabels = [...]string{"Package", "Module", "Class", "Method", "Field"}

var kindPrefixes = [...]string{"pkg", "mod", "cls", "method", "field"}

// Level returns the view level at which entities of this kind first appear.
func (k Kind) Level() int { return int(k) }

// Valid reports whether k is one of the five entity kinds.
func (k Kind) Valid() bool { return k >= KindPackage && k <= KindField }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Label returns the capitalized display name ("Module").
func (k Kind) Label() string {
	if !k.Valid() {
		return k.String()
	}
	return kindLabels[k]
}

// Prefix returns the short tag used when synthesizing fallback ids ("mod").
func (k Kind) Prefix() string {
	if !k.Valid() {
		return "entity"
	}
	return kindPrefixes[k]
}

// MarshalText encodes the kind as its lowercase name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid entity kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a lowercase kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a lowercase kind name.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown entity kind %q", s)
}

// KindAtLevel returns the kind whose level is level.
func KindAtLevel(level int) (Kind, bool) {
	k := Kind(level)
	return k, k.Valid()
}

// LevelName returns the display name of a view level ("Class" for 2).
func LevelName(level int) string {
	if k, ok := KindAtLevel(level); ok {
		return k.Label()
	}
	return fmt.Sprintf("Level %d", level)
}

// EdgeKind is the relationship an edge represents.
type EdgeKind string

const (
	EdgeImport    EdgeKind = "import"
	EdgeInherit   EdgeKind = "inheritance"
	EdgeCompose   EdgeKind = "composition"
	EdgeCall      EdgeKind = "call"
	EdgeReference EdgeKind = "reference"
	EdgeContains  EdgeKind = "contains"
)

// EdgeKinds lists every edge kind.
var EdgeKinds = []EdgeKind{EdgeImport, EdgeInherit, EdgeCompose, EdgeCall, EdgeReference, EdgeContains}

// Valid reports whether k is a known edge kind.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeImport, EdgeInherit, EdgeCompose, EdgeCall, EdgeReference, EdgeContains:
		return true
	}
	return false
}

func (k EdgeKind) String() string { return string(k) }
