package analysis

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pyview/hiergraph/pkg/cycles"
	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
)

// Collections holds the raw entity records of an analysis, one slice per kind.
type Collections struct {
	Packages      []json.RawMessage `json:"packages,omitempty"`
	Modules       []json.RawMessage `json:"modules,omitempty"`
	Classes       []json.RawMessage `json:"classes,omitempty"`
	Methods       []json.RawMessage `json:"methods,omitempty"`
	Fields        []json.RawMessage `json:"fields,omitempty"`
	Relationships []json.RawMessage `json:"relationships,omitempty"`
}

// Of returns the raw records of one entity kind.
func (c *Collections) Of(k entity.Kind) []json.RawMessage {
	switch k {
	case entity.KindPackage:
		return c.Packages
	case entity.KindModule:
		return c.Modules
	case entity.KindClass:
		return c.Classes
	case entity.KindMethod:
		return c.Methods
	case entity.KindField:
		return c.Fields
	}
	return nil
}

// Result is a decoded analysis result.
type Result struct {
	Collections
	Cycles      cycles.Set
	ProjectName string
}

// Size returns the number of entity records across all kinds.
func (r *Result) Size() int {
	n := 0
	for _, k := range entity.Kinds {
		n += len(r.Of(k))
	}
	return n
}

type document struct {
	Collections
	DependencyGraph *Collections `json:"dependency_graph"`
	Cycles          cycles.Set   `json:"cycles"`
	ProjectName     string       `json:"project_name"`
	ProjectInfo     struct {
		Name string `json:"name"`
	} `json:"project_info"`
}

// Decode parses an analysis document in either the flat or the server form.
// A document that is not a JSON object fails with INVALID_ANALYSIS.
func Decode(data []byte) (*Result, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidAnalysis, err, "decode analysis")
	}
	res := &Result{
		Collections: doc.Collections,
		Cycles:      doc.Cycles,
		ProjectName: doc.ProjectName,
	}
	if doc.DependencyGraph != nil {
		res.Collections = *doc.DependencyGraph
	}
	if res.ProjectName == "" {
		res.ProjectName = doc.ProjectInfo.Name
	}
	return res, nil
}

// Read decodes an analysis document from r. Read does not close r.
func Read(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidAnalysis, err, "read analysis")
	}
	return Decode(data)
}

// Load reads and decodes the analysis file at path. It returns the raw bytes
// as well so callers can derive cache keys from them.
func Load(path string) (*Result, []byte, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	res, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return res, data, nil
}

// ReadFile reads the analysis file at path without decoding it. A missing
// file fails with FILE_NOT_FOUND.
func ReadFile(path string) ([]byte, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidAnalysis, err, "read %s", path)
	}
	return data, nil
}
