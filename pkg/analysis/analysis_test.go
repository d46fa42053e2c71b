package analysis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
)

func TestDecodeFlat(t *testing.T) {
	res, err := Decode([]byte(`{
		"project_name": "shop",
		"packages": [{"id": "pkg:shop"}],
		"modules": [{"id": "mod:a", "imports": [{"module": "b"}]}, {"id": "mod:b"}],
		"cycles": {"cycles": [{"entities": ["mod:a", "mod:b"]}]}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "shop", res.ProjectName)
	assert.Len(t, res.Of(entity.KindModule), 2)
	assert.Len(t, res.Of(entity.KindPackage), 1)
	assert.Empty(t, res.Of(entity.KindField))
	assert.Len(t, res.Cycles, 1)
	assert.Equal(t, 3, res.Size())
}

func TestDecodeServerForm(t *testing.T) {
	res, err := Decode([]byte(`{
		"dependency_graph": {"modules": [{"id": "mod:x"}], "classes": [{"id": "cls:mod:x:C"}]},
		"cycles": [{"entities": ["mod:x"], "severity": "high"}],
		"project_info": {"name": "proj"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "proj", res.ProjectName)
	assert.Len(t, res.Modules, 1)
	assert.Len(t, res.Classes, 1)
	require.Len(t, res.Cycles, 1)
	assert.Equal(t, "high", string(res.Cycles[0].Severity))
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, in := range []string{`[]`, `"x"`, `{"modules": 3}`, `{`} {
		_, err := Decode([]byte(in))
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidAnalysis), "Decode(%s) = %v", in, err)
	}
}

func TestDecodeRecord(t *testing.T) {
	r, err := DecodeRecord(json.RawMessage(`{
		"id": "mod:a",
		"imports": ["b", {"module": "c", "import_type": "call"}],
		"classes": ["cls:mod:a:X", {"id": "cls:mod:a:Y"}, {"name": "Z"}, 4],
		"functions": []
	}`))
	require.NoError(t, err)

	assert.Equal(t, "mod:a", r.ID)
	assert.Equal(t, []Import{{Module: "b"}, {Module: "c", ImportType: "call"}}, r.Imports)
	assert.Equal(t, IDList{"cls:mod:a:X", "cls:mod:a:Y", "Z"}, r.Classes)
}

func TestDecodeRecordMalformed(t *testing.T) {
	for _, in := range []string{`null`, `"mod:a"`, `12`, `{"id": 5}`, `{"imports": 1}`} {
		_, err := DecodeRecord(json.RawMessage(in))
		assert.ErrorIs(t, err, ErrMalformedRecord, in)
	}
}

func TestDecodeRelationship(t *testing.T) {
	r, err := DecodeRelationship(json.RawMessage(`{"from_entity": "a", "to_entity": "b", "relationship_type": "call"}`))
	require.NoError(t, err)
	assert.Equal(t, Relationship{From: "a", To: "b", Type: "call"}, r)

	_, err = DecodeRelationship(json.RawMessage(`{"from_entity": "a"}`))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analysis.json")
	content := `{"modules": [{"id": "mod:a"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	res, data, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, res.Modules, 1)
	assert.Equal(t, content, string(data))

	_, _, err = Load(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestRead(t *testing.T) {
	res, err := Read(strings.NewReader(`{"fields": [{"id": "f"}]}`))
	require.NoError(t, err)
	assert.Len(t, res.Fields, 1)
}
