package materialize

import (
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/primitives"
)

// MaterializationNode is the plan-node directive consumed by the
// materialization executor: which source columns map to which output
// columns, the output schema, and whether to physicalize at all.
//
// A nil node means identity mapping over the source tile's inferred schema
// with physicalization on.
type MaterializationNode struct {
	oldToNewCols map[primitives.ColumnID]primitives.ColumnID
	outputSchema *schema.Schema
	physify      bool
}

// NewMaterializationNode builds a directive with an explicit column mapping
// and output schema. Either may be nil, in which case the executor falls
// back to the identity mapping.
func NewMaterializationNode(oldToNewCols map[primitives.ColumnID]primitives.ColumnID,
	outputSchema *schema.Schema, physify bool) *MaterializationNode {
	return &MaterializationNode{
		oldToNewCols: oldToNewCols,
		outputSchema: outputSchema,
		physify:      physify,
	}
}

// OldToNewCols returns the (source column -> output column) mapping, or nil.
func (n *MaterializationNode) OldToNewCols() map[primitives.ColumnID]primitives.ColumnID {
	return n.oldToNewCols
}

// OutputSchema returns the target schema, or nil.
func (n *MaterializationNode) OutputSchema() *schema.Schema {
	return n.outputSchema
}

// Physify reports whether the executor should build a physical copy rather
// than pass the source tile through.
func (n *MaterializationNode) Physify() bool {
	return n.physify
}
