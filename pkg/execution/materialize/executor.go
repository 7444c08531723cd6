package materialize

import "tilestore/pkg/execution/logicaltile"

// Executor is the pull contract between operators. Init runs one-time setup
// and surfaces structural problems (wrong child count, missing mapping).
// Execute pulls the next logical tile: true means GetOutput holds a tile,
// false means no more output.
//
// The false return deliberately conflates "input exhausted" with "this pull
// produced an empty tile, suppressed" — upstream operators treat both as the
// end of useful input, matching the behavior downstream code is written
// against.
type Executor interface {
	Init() error

	Execute() (bool, error)

	// GetOutput transfers ownership of the current output tile to the
	// caller; a second call before the next Execute returns nil.
	GetOutput() *logicaltile.LogicalTile
}
