package gorbn

import (
	"context"
)

const (

	// MaxNodes is the max number of nodes in a Net (a hard ceiling, not a tuning knob).
	// Exhaustive attractor search walks all 2^n states, so n is kept deliberately small.
	MaxNodes = 20

	// MaxStateCount is the size of the largest possible state space.
	MaxStateCount = 1 << MaxNodes
)

// State packs one boolean per node: node i is bit i, so a full state space
// is enumerable as the plain integers [0, 2^n).
type State uint32

// Discipline selects which update semantics drive a step or an analysis.
type Discipline byte

const (

	// SyncUpdate recomputes every node simultaneously from the pre-step state.
	SyncUpdate Discipline = 1 + iota

	// AsyncUpdate recomputes one uniformly chosen node per step.
	AsyncUpdate
)

func (d Discipline) String() string {
	switch d {
	case SyncUpdate:
		return "sync"
	case AsyncUpdate:
		return "async"
	}
	return "???"
}

// Attractor is a set of states closed and minimal under an update discipline.
// The slice is canonical: strictly ascending, no duplicates.
type Attractor []State

// FreeVar marks an unconstrained node in a TrapSpace.
const FreeVar int8 = -1

// TrapSpace is a partial assignment over all n nodes: each entry is 0, 1, or FreeVar.
// A minimal trap space is the asynchronous-attractor characterization returned by a TrapSolver.
type TrapSpace []int8

// Limits bounds the exponential parts of an analysis.
// A zero field means the corresponding default below.
type Limits struct {
	MaxStates int64 // max states walked or expanded per analysis
	MaxSpaces int   // max trap spaces accepted from a solver
}

var DefaultLimits = Limits{
	MaxStates: MaxStateCount,
	MaxSpaces: 4096,
}

// Bounded returns lim with zero fields replaced by DefaultLimits values.
func (lim Limits) Bounded() Limits {
	if lim.MaxStates <= 0 {
		lim.MaxStates = DefaultLimits.MaxStates
	}
	if lim.MaxSpaces <= 0 {
		lim.MaxSpaces = DefaultLimits.MaxSpaces
	}
	return lim
}

// TrapSolver computes the minimal trap spaces of a rule set.
//
// The rule text is the plain-text grammar shared with .bnet files: one
// `v<i>, <expr>` line per node. The returned spaces must be minimal (no
// returned space strictly contains another) and mutually distinct; the
// caller verifies shape only, never minimality.
type TrapSolver interface {
	MinTrapSpaces(ctx context.Context, ruleText []byte) ([]TrapSpace, error)
}

// ModelInfo describes one published model held in a Catalog.
type ModelInfo struct {
	ID        string
	Name      string
	NodeCount int32
}

// OnModelHit is a callback channel used to return models meeting a set of selection criteria.
type OnModelHit chan<- ModelInfo

// ModelSelector is an operator that either selects a given model or not.
type ModelSelector struct {
	IDPrefix string // if set, only models whose ID has this prefix
	MinNodes int32  // lower select bound (0 = no bound)
	MaxNodes int32  // upper select bound (0 = no bound)
}

// Admits returns whether info meets sel's criteria.
func (sel *ModelSelector) Admits(info ModelInfo) bool {
	if sel.MinNodes > 0 && info.NodeCount < sel.MinNodes {
		return false
	}
	if sel.MaxNodes > 0 && info.NodeCount > sel.MaxNodes {
		return false
	}
	if sel.IDPrefix != "" {
		if len(info.ID) < len(sel.IDPrefix) || info.ID[:len(sel.IDPrefix)] != sel.IDPrefix {
			return false
		}
	}
	return true
}

// ModelAdder accepts model sources keyed by ID.
type ModelAdder interface {

	// Tries to add the given model source to this catalog.
	// If true is returned, the ID did not exist and the model was added.
	TryAddModel(info ModelInfo, src []byte) (bool, error)
}

// Catalog wraps a database of published model sources.
type Catalog interface {
	ModelAdder

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	// NumModels returns the number of models stored in this catalog.
	NumModels() int64

	// Select fires the given callback with each ModelInfo that meets the selection criteria.
	Select(sel ModelSelector, onHit OnModelHit)

	// LoadSource returns the stored rule text for the given model ID.
	LoadSource(modelID string) ([]byte, error)

	Close() error
}

// CatalogOpts specifies params for opening a model Catalog.
type CatalogOpts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool   // open in read-only mode
}

// CatalogContext is a container for open / active Catalog instances.
type CatalogContext interface {

	// Attaches the given Catalog to this context.
	AttachCatalog(cat Catalog)

	// Detaches the given Catalog from this context.
	DetachCatalog(cat Catalog)

	// Closes all open catalogs to be closed then closes.
	Close()

	// Signals when Close() completed and all open Catalogs have been closed
	Done() <-chan struct{}
}
