package main

import (
	"flag"
	"fmt"

	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/concurrency/transaction"
	"tilestore/pkg/config"
	"tilestore/pkg/execution/logicaltile"
	"tilestore/pkg/execution/materialize"
	"tilestore/pkg/logging"
	"tilestore/pkg/primitives"
	"tilestore/pkg/storage/directory"
	"tilestore/pkg/storage/index"
	"tilestore/pkg/storage/table"
	"tilestore/pkg/tuple"
	"tilestore/pkg/types"

	"github.com/rs/zerolog"
)

type arguments struct {
	configPath string
	rows       int
}

func parseArguments() arguments {
	var args arguments
	flag.StringVar(&args.configPath, "config", "", "Path to a storage .properties file")
	flag.IntVar(&args.rows, "rows", 2500, "Number of demo tuples to insert")
	flag.Parse()
	return args
}

// main runs a small end-to-end tour of the storage core: build a two-tile
// table with a primary-key index, insert and commit a batch of tuples, then
// materialize the committed rows of the first tile group into a fresh
// physical layout.
func main() {
	args := parseArguments()
	logger := logging.NewLogger()

	cfg := config.DefaultStorageConfig()
	if args.configPath != "" {
		var err error
		cfg, err = config.LoadStorageConfig(args.configPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load config")
		}
	}

	dir, err := directory.NewDirectory(cfg.DirectoryCacheSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create directory")
	}
	defer dir.Close()

	tbl, err := buildDemoTable(cfg, dir, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build table")
	}

	mgr, err := transaction.NewManager(dir, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create transaction manager")
	}

	if err := loadDemoData(tbl, mgr, args.rows); err != nil {
		logger.Fatal().Err(err).Msg("failed to load demo data")
	}
	logger.Info().
		Int("rows", args.rows).
		Int("tile_groups", tbl.NumTileGroups()).
		Msg("demo data committed")

	if err := materializeCommitted(tbl, &logger); err != nil {
		logger.Fatal().Err(err).Msg("materialization failed")
	}
}

// buildDemoTable creates a four-column table split over two tiles, with a
// unique primary-key index on the first column.
func buildDemoTable(cfg config.StorageConfig, dir *directory.Directory, logger *zerolog.Logger) (*table.Table, error) {
	colA, err := schema.NewColumn("id", types.Int32Type, false)
	if err != nil {
		return nil, err
	}
	colB, err := schema.NewColumn("count", types.Int32Type, false)
	if err != nil {
		return nil, err
	}
	colC, err := schema.NewColumn("weight", types.Float64Type, false)
	if err != nil {
		return nil, err
	}
	colD, err := schema.NewVarcharColumn("label", 25, false)
	if err != nil {
		return nil, err
	}

	first, err := schema.NewSchema([]schema.Column{colA, colB})
	if err != nil {
		return nil, err
	}
	second, err := schema.NewSchema([]schema.Column{colC, colD})
	if err != nil {
		return nil, err
	}
	combined, err := first.Append(second)
	if err != nil {
		return nil, err
	}

	tbl, err := table.NewTable(table.Config{
		Name:               "demo",
		Schema:             combined,
		TileSchemas:        []*schema.Schema{first, second},
		TuplesPerTileGroup: cfg.TuplesPerTileGroup,
		Directory:          dir,
		Logger:             logger,
	})
	if err != nil {
		return nil, err
	}

	pkMeta, err := index.NewMetadata("demo_pkey", combined, []primitives.ColumnID{0}, true)
	if err != nil {
		return nil, err
	}
	pk, err := index.NewOrderedIndex(pkMeta)
	if err != nil {
		return nil, err
	}
	tbl.AddIndex(pk)
	return tbl, nil
}

// loadDemoData inserts rows in one transaction and commits it.
func loadDemoData(tbl *table.Table, mgr *transaction.Manager, rows int) error {
	txn := mgr.Begin()
	s := tbl.Schema()

	for row := 0; row < rows; row++ {
		tu := tuple.NewTuple(s)
		if err := tu.SetField(0, types.NewInt32Field(int32(row*10))); err != nil {
			return err
		}
		if err := tu.SetField(1, types.NewInt32Field(int32(row*10+1))); err != nil {
			return err
		}
		if err := tu.SetField(2, types.NewFloat64Field(float64(row*10+2))); err != nil {
			return err
		}
		if err := tu.SetField(3, types.NewStringField(fmt.Sprintf("item-%d", row), 25)); err != nil {
			return err
		}

		loc, err := tbl.InsertTuple(txn.ID(), tu)
		if err != nil {
			return err
		}
		txn.RecordInsert(loc)
	}

	_, err := mgr.Commit(txn)
	return err
}

// tileGroupSource feeds the committed rows of each tile group to the
// materialization executor, one logical tile per pull.
type tileGroupSource struct {
	it      *table.TileGroupIterator
	current *logicaltile.LogicalTile
}

func (s *tileGroupSource) Init() error { return nil }

func (s *tileGroupSource) Execute() (bool, error) {
	for s.it.HasNext() {
		tg, ok := s.it.Next()
		if !ok {
			return false, nil
		}

		visible := make([]primitives.SlotID, 0, tg.ActiveTupleCount())
		for slot := primitives.SlotID(0); slot < tg.ActiveTupleCount(); slot++ {
			if tg.IsCommitted(slot) && !tg.IsDeleted(slot) {
				visible = append(visible, slot)
			}
		}

		lt, err := logicaltile.WrapTileGroup(tg, visible)
		if err != nil {
			return false, err
		}
		s.current = lt
		return true, nil
	}
	return false, nil
}

func (s *tileGroupSource) GetOutput() *logicaltile.LogicalTile {
	out := s.current
	s.current = nil
	return out
}

// materializeCommitted pulls every tile group through a materialization
// executor and logs the shape of each physical result.
func materializeCommitted(tbl *table.Table, logger *zerolog.Logger) error {
	exec := materialize.NewMaterializationExecutor(nil)
	exec.AddChild(&tileGroupSource{it: table.NewTileGroupIterator(tbl)})
	if err := exec.Init(); err != nil {
		return err
	}

	for {
		ok, err := exec.Execute()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		out := exec.GetOutput()
		logger.Info().
			Int("rows", out.SelectedRowCount()).
			Uint32("columns", uint32(out.NumCols())).
			Msg("materialized tile")
	}
	return nil
}
