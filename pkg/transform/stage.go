package transform

import "fmt"

// Stage is one step of a transformation run. Stages always execute in
// declaration order.
type Stage int

const (
	StagePackages Stage = iota
	StageModules
	StageClasses
	StageMethods
	StageFields
	StageModuleEdges
	StageMethodEdges
	StageClassEdges
	StageFinalize
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StagePackages, StageModules, StageClasses, StageMethods, StageFields,
	StageModuleEdges, StageMethodEdges, StageClassEdges, StageFinalize,
}

var stageInfo = [...]struct {
	name, label, kind string
}{
	StagePackages:    {"packages", "Building packages", "Package"},
	StageModules:     {"modules", "Building modules", "Module"},
	StageClasses:     {"classes", "Building classes", "Class"},
	StageMethods:     {"methods", "Building methods", "Method"},
	StageFields:      {"fields", "Building fields", "Field"},
	StageModuleEdges: {"module-edges", "Linking module dependencies", "Module Edge"},
	StageMethodEdges: {"method-edges", "Linking methods and fields", "Method/Field Edge"},
	StageClassEdges:  {"class-edges", "Linking class members", "Class Edge"},
	StageFinalize:    {"finalize", "Finalizing graph", "Hierarchy"},
}

func (s Stage) valid() bool { return s >= StagePackages && s <= StageFinalize }

func (s Stage) String() string {
	if !s.valid() {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageInfo[s].name
}

// Label returns the human-readable stage label reported with progress.
func (s Stage) Label() string {
	if !s.valid() {
		return s.String()
	}
	return stageInfo[s].label
}

// Kind returns the item kind a stage processes, as reported with progress.
func (s Stage) Kind() string {
	if !s.valid() {
		return ""
	}
	return stageInfo[s].kind
}

// IsEntityStage reports whether the stage creates entities.
func (s Stage) IsEntityStage() bool { return s >= StagePackages && s <= StageFields }

// Progress is reported after every processed chunk.
type Progress struct {
	// Fraction of the whole run completed, in [0, 1]. Never decreases during
	// a run and reaches 1 only once every stage has completed.
	Fraction float64 `json:"fraction"`

	Stage  Stage  `json:"-"`
	Label  string `json:"stage"`
	Detail string `json:"detail"`

	TotalItems     int    `json:"totalItems"`
	ProcessedItems int    `json:"processedItems"`
	CurrentKind    string `json:"currentKind"`
}

// ProgressFunc receives progress updates. It runs on the transforming
// goroutine and should return quickly.
type ProgressFunc func(Progress)
