package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"tilestore/pkg/catalog/schema"
	"tilestore/pkg/execution/logicaltile"
	"tilestore/pkg/execution/materialize"
	"tilestore/pkg/logging"
	"tilestore/pkg/primitives"
	"tilestore/pkg/storage/directory"
	"tilestore/pkg/storage/index"
	"tilestore/pkg/storage/table"
	"tilestore/pkg/tuple"
	"tilestore/pkg/types"
)

// Result captures latency and throughput metrics for one benchmark.
type Result struct {
	Name          string        `json:"name"`
	Iterations    int           `json:"iterations"`
	Workers       int           `json:"workers"`
	TotalDuration time.Duration `json:"total_duration_ns"`
	AvgDuration   time.Duration `json:"avg_duration_ns"`
	P50Duration   time.Duration `json:"p50_duration_ns"`
	P95Duration   time.Duration `json:"p95_duration_ns"`
	P99Duration   time.Duration `json:"p99_duration_ns"`
	OpsPerSecond  float64       `json:"ops_per_second"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Report aggregates all benchmark results.
type Report struct {
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	TotalDuration time.Duration `json:"total_duration"`
	Results       []Result      `json:"results"`
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// main runs the storage benchmarks and writes a JSON report.
//
// Environment variables:
//   - BENCHMARK_OUTPUT: report path (default: ./benchmark-results.json)
//   - BENCHMARK_ROWS: rows per benchmark table (default: 100000)
//   - BENCHMARK_WORKERS: concurrent insert workers (default: 8)
func main() {
	logger := logging.NewLogger()

	output := os.Getenv("BENCHMARK_OUTPUT")
	if output == "" {
		output = "./benchmark-results.json"
	}
	rows := envInt("BENCHMARK_ROWS", 100_000)
	workers := envInt("BENCHMARK_WORKERS", 8)

	report := Report{StartTime: time.Now()}

	insertResult, tbl, err := benchmarkInserts(rows, workers)
	if err != nil {
		logger.Fatal().Err(err).Msg("insert benchmark failed")
	}
	report.Results = append(report.Results, insertResult)
	logger.Info().Float64("ops_per_second", insertResult.OpsPerSecond).Msg("insert benchmark done")

	lookupResult, err := benchmarkLookups(tbl, rows)
	if err != nil {
		logger.Fatal().Err(err).Msg("lookup benchmark failed")
	}
	report.Results = append(report.Results, lookupResult)
	logger.Info().Float64("ops_per_second", lookupResult.OpsPerSecond).Msg("lookup benchmark done")

	matResult, err := benchmarkMaterialization(tbl)
	if err != nil {
		logger.Fatal().Err(err).Msg("materialization benchmark failed")
	}
	report.Results = append(report.Results, matResult)
	logger.Info().Float64("ops_per_second", matResult.OpsPerSecond).Msg("materialization benchmark done")

	report.EndTime = time.Now()
	report.TotalDuration = report.EndTime.Sub(report.StartTime)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode report")
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		logger.Fatal().Err(err).Msg("failed to write report")
	}
	logger.Info().Str("path", output).Msg("report written")
}

// buildTable creates the benchmark table: four columns over two tiles with a
// unique primary-key index on the first column.
func buildTable() (*table.Table, error) {
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

	dir, err := directory.NewDirectory(1 << 16)
	if err != nil {
		return nil, err
	}

	tbl, err := table.NewTable(table.Config{
		Name:        "bench",
		Schema:      combined,
		TileSchemas: []*schema.Schema{first, second},
		Directory:   dir,
	})
	if err != nil {
		return nil, err
	}

	pkMeta, err := index.NewMetadata("bench_pkey", combined, []primitives.ColumnID{0}, true)
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

func benchTuple(s *schema.Schema, row int) (*tuple.Tuple, error) {
	tu := tuple.NewTuple(s)
	if err := tu.SetField(0, types.NewInt32Field(int32(row))); err != nil {
		return nil, err
	}
	if err := tu.SetField(1, types.NewInt32Field(int32(row+1))); err != nil {
		return nil, err
	}
	if err := tu.SetField(2, types.NewFloat64Field(float64(row)+0.5)); err != nil {
		return nil, err
	}
	if err := tu.SetField(3, types.NewStringField(fmt.Sprintf("item-%d", row), 25)); err != nil {
		return nil, err
	}
	return tu, nil
}

// benchmarkInserts measures concurrent indexed inserts and returns the
// populated table for the follow-up benchmarks.
func benchmarkInserts(rows, workers int) (Result, *table.Table, error) {
	tbl, err := buildTable()
	if err != nil {
		return Result{}, nil, err
	}
	s := tbl.Schema()

	perWorker := rows / workers
	durations := make([][]time.Duration, workers)
	errs := make([]error, workers)

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			local := make([]time.Duration, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				row := worker*perWorker + i
				tu, err := benchTuple(s, row)
				if err != nil {
					errs[worker] = err
					return
				}

				opStart := time.Now()
				if _, err := tbl.InsertTuple(primitives.TxnID(worker+1), tu); err != nil {
					errs[worker] = err
					return
				}
				local = append(local, time.Since(opStart))
			}
			durations[worker] = local
		}(w)
	}
	wg.Wait()
	total := time.Since(start)

	for _, err := range errs {
		if err != nil {
			return Result{}, nil, err
		}
	}

	var all []time.Duration
	for _, d := range durations {
		all = append(all, d...)
	}
	return summarize("concurrent_indexed_insert", all, workers, total), tbl, nil
}

// benchmarkLookups measures point lookups through the primary-key index and
// the directory.
func benchmarkLookups(tbl *table.Table, rows int) (Result, error) {
	pk := tbl.GetPrimaryKeyIndex()
	keySchema := pk.Metadata().KeySchema

	iterations := rows
	durations := make([]time.Duration, 0, iterations)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		key := tuple.NewTuple(keySchema)
		if err := key.SetField(0, types.NewInt32Field(int32(i))); err != nil {
			return Result{}, err
		}

		opStart := time.Now()
		locations, err := pk.Search(key)
		if err != nil {
			return Result{}, err
		}
		if len(locations) != 1 {
			return Result{}, fmt.Errorf("key %d: expected one location, got %d", i, len(locations))
		}
		if _, _, err := tbl.Directory().Resolve(locations[0]); err != nil {
			return Result{}, err
		}
		durations = append(durations, time.Since(opStart))
	}
	total := time.Since(start)

	return summarize("pkey_lookup", durations, 1, total), nil
}

// benchmarkMaterialization measures physifying each tile group into a fresh
// single-tile layout.
func benchmarkMaterialization(tbl *table.Table) (Result, error) {
	exec := materialize.NewMaterializationExecutor(nil)
	durations := make([]time.Duration, 0, tbl.NumTileGroups())

	start := time.Now()
	it := table.NewTileGroupIterator(tbl)
	for it.HasNext() {
		tg, ok := it.Next()
		if !ok {
			break
		}

		visible := make([]primitives.SlotID, tg.ActiveTupleCount())
		for i := range visible {
			visible[i] = primitives.SlotID(i)
		}
		lt, err := logicaltile.WrapTileGroup(tg, visible)
		if err != nil {
			return Result{}, err
		}

		opStart := time.Now()
		if _, err := exec.Physify(lt); err != nil {
			return Result{}, err
		}
		durations = append(durations, time.Since(opStart))
	}
	total := time.Since(start)

	return summarize("tile_group_materialization", durations, 1, total), nil
}

// summarize computes latency percentiles and throughput for one benchmark.
func summarize(name string, durations []time.Duration, workers int, total time.Duration) Result {
	slices.Sort(durations)

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	percentile := func(p float64) time.Duration {
		if len(durations) == 0 {
			return 0
		}
		idx := int(float64(len(durations)-1) * p)
		return durations[idx]
	}

	result := Result{
		Name:          name,
		Iterations:    len(durations),
		Workers:       workers,
		TotalDuration: total,
		P50Duration:   percentile(0.50),
		P95Duration:   percentile(0.95),
		P99Duration:   percentile(0.99),
		Timestamp:     time.Now(),
	}
	if len(durations) > 0 {
		result.AvgDuration = sum / time.Duration(len(durations))
	}
	if total > 0 {
		result.OpsPerSecond = float64(len(durations)) / total.Seconds()
	}
	return result
}
