package materialize

import (
	"fmt"
	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/execution/logicaltile"
	"tilestore/pkg/primitives"
	"tilestore/pkg/storage/tile"
)

// MaterializationExecutor turns the logical tiles pulled from its single
// child into freshly laid-out physical tiles, or passes them through
// unchanged. It doubles as a projection operator: the node's column mapping
// may reorder, drop, or duplicate source columns, which is what makes late
// materialization work — data stays columnar in the base tiles until an
// operator actually needs a contiguous layout.
type MaterializationExecutor struct {
	node     *MaterializationNode
	children []Executor
	output   *logicaltile.LogicalTile
}

// NewMaterializationExecutor creates an executor for the given directive.
// A nil node selects identity mapping with physicalization on.
func NewMaterializationExecutor(node *MaterializationNode) *MaterializationExecutor {
	return &MaterializationExecutor{node: node}
}

// AddChild appends a child executor. Init enforces that exactly one child
// was attached.
func (e *MaterializationExecutor) AddChild(child Executor) {
	e.children = append(e.children, child)
}

// Init validates the executor's structure and initializes its child.
func (e *MaterializationExecutor) Init() error {
	if len(e.children) != 1 {
		return fmt.Errorf("materialization executor requires exactly one child, got %d", len(e.children))
	}
	return e.children[0].Init()
}

// Execute pulls one logical tile from the child. End-of-stream and
// zero-selected-row tiles both yield (false, nil): empty intermediate
// results are suppressed rather than propagated as empty tiles.
func (e *MaterializationExecutor) Execute() (bool, error) {
	ok, err := e.children[0].Execute()
	if err != nil || !ok {
		return false, err
	}

	source := e.children[0].GetOutput()
	if source == nil {
		return false, fmt.Errorf("child reported output but returned no tile")
	}
	if source.SelectedRowCount() == 0 {
		return false, nil
	}

	physify := true // by default, we create a physical tile
	if e.node != nil {
		physify = e.node.Physify()
	}

	if !physify {
		// pass the child's tile through by ownership transfer
		e.output = source
		return true, nil
	}

	output, err := e.Physify(source)
	if err != nil {
		return false, err
	}
	e.output = output
	return true, nil
}

// GetOutput transfers the current output tile to the caller.
func (e *MaterializationExecutor) GetOutput() *logicaltile.LogicalTile {
	out := e.output
	e.output = nil
	return out
}

// Physify copies a logical tile into a single new physical tile shaped to
// the target schema and wraps it as a fresh, tile-owning logical tile.
// Output rows are numbered densely from 0 in the source's selected-row
// iteration order, independent of the original slot numbers.
func (e *MaterializationExecutor) Physify(source *logicaltile.LogicalTile) (*logicaltile.LogicalTile, error) {
	outputSchema, oldToNewCols, err := e.resolveMapping(source)
	if err != nil {
		return nil, err
	}

	tileToCols, err := buildTileToColumnMap(source, oldToNewCols)
	if err != nil {
		return nil, err
	}

	rowCount := source.SelectedRowCount()
	dest, err := tile.NewPhysicalTile(outputSchema, primitives.SlotID(rowCount))
	if err != nil {
		return nil, err
	}

	if err := materializeByTiles(source, oldToNewCols, tileToCols, dest); err != nil {
		return nil, err
	}

	return logicaltile.WrapTiles([]*tile.PhysicalTile{dest}, true, primitives.SlotID(rowCount))
}

// resolveMapping picks the (old column -> new column) mapping and output
// schema: the node's own if it supplies both, otherwise an identity mapping
// over the source tile's inferred physical schema.
func (e *MaterializationExecutor) resolveMapping(source *logicaltile.LogicalTile) (*schema.Schema, map[primitives.ColumnID]primitives.ColumnID, error) {
	if e.node != nil && e.node.OutputSchema() != nil && e.node.OldToNewCols() != nil {
		return e.node.OutputSchema(), e.node.OldToNewCols(), nil
	}

	inferred, err := source.PhysicalSchema()
	if err != nil {
		return nil, nil, err
	}
	return inferred, buildIdentityMapping(source), nil
}

// buildIdentityMapping maps every valid source column to the next dense
// output position, preserving logical order. Invalidated columns are
// excluded.
func buildIdentityMapping(source *logicaltile.LogicalTile) map[primitives.ColumnID]primitives.ColumnID {
	mapping := make(map[primitives.ColumnID]primitives.ColumnID)
	next := primitives.ColumnID(0)
	for col := primitives.ColumnID(0); col < source.NumCols(); col++ {
		if !source.IsValid(col) {
			continue
		}
		mapping[col] = next
		next++
	}
	return mapping
}

// buildTileToColumnMap buckets the mapped source columns by their owning
// physical tile, so copying can proceed one base tile at a time: each source
// tile's storage is walked in a batch instead of re-resolving the logical
// mapping per output column.
func buildTileToColumnMap(source *logicaltile.LogicalTile,
	oldToNewCols map[primitives.ColumnID]primitives.ColumnID) (map[*tile.PhysicalTile][]primitives.ColumnID, error) {
	tileToCols := make(map[*tile.PhysicalTile][]primitives.ColumnID)
	for oldCol := range oldToNewCols {
		base, err := source.GetBaseTile(oldCol)
		if err != nil {
			return nil, err
		}
		tileToCols[base] = append(tileToCols[base], oldCol)
	}
	return tileToCols, nil
}

// materializeByTiles does the actual copying, one base-tile bucket at a
// time. The bucket processing order does not affect the output: the column
// layout is fixed by the mapping, and row order by the source iteration.
func materializeByTiles(source *logicaltile.LogicalTile,
	oldToNewCols map[primitives.ColumnID]primitives.ColumnID,
	tileToCols map[*tile.PhysicalTile][]primitives.ColumnID,
	dest *tile.PhysicalTile) error {
	for _, oldCols := range tileToCols {
		for _, oldCol := range oldCols {
			newCol, ok := oldToNewCols[oldCol]
			if !ok {
				return fmt.Errorf("source column %d missing from mapping", oldCol)
			}

			newRow := primitives.SlotID(0)
			it := source.Iterator()
			for {
				oldRow, more := it.Next()
				if !more {
					break
				}
				value, err := source.GetValue(oldRow, oldCol)
				if err != nil {
					return err
				}
				if err := dest.SetValue(value, newRow, newCol); err != nil {
					return err
				}
				newRow++
			}
		}
	}
	return nil
}
