package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
)

// keySchema is hashed into every key. Bump it when a cached format changes.
const keySchema = 1

// Keyer generates cache keys for each artifact type.
type Keyer interface {
	// GraphKey identifies the entity graph transformed from an analysis.
	GraphKey(analysisHash string) string

	// ElementsKey identifies the view elements built from a graph.
	ElementsKey(graphHash string, opts ElementsKeyOpts) string

	// ArtifactKey identifies rendered output built from view elements.
	ArtifactKey(elementsHash string, opts ArtifactKeyOpts) string
}

// ElementsKeyOpts are the view options that affect element output.
type ElementsKeyOpts struct {
	Level    int      `json:"level"`
	Project  string   `json:"project,omitempty"`
	Expanded []string `json:"expanded,omitempty"`
	Hidden   []string `json:"hidden,omitempty"`
}

// ArtifactKeyOpts are the render options that affect artifact output.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	Title      string `json:"title,omitempty"`
	EdgeLabels bool   `json:"edge_labels,omitempty"`
}

// DefaultKeyer generates keys of the form "<type>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) GraphKey(analysisHash string) string {
	return hashKey("graph", keySchema, analysisHash)
}

// ElementsKey ignores the order of the expanded and hidden ids.
func (DefaultKeyer) ElementsKey(graphHash string, opts ElementsKeyOpts) string {
	opts.Expanded = sortedSet(opts.Expanded)
	opts.Hidden = sortedSet(opts.Hidden)
	return hashKey("elements", keySchema, graphHash, opts)
}

func sortedSet(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func (DefaultKeyer) ArtifactKey(elementsHash string, opts ArtifactKeyOpts) string {
	opts.Format = strings.ToLower(opts.Format)
	return hashKey("artifact", keySchema, elementsHash, opts)
}

// hashKey returns "<prefix>:<sha256 of the JSON-encoded parts>".
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	// Encoding plain values and option structs into a hash cannot fail.
	_ = json.NewEncoder(h).Encode(parts)
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of data. Analysis documents, graphs and
// elements are identified by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
