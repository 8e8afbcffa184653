// Command arraydb-bench drives a synthetic sort and scatter/gather
// redistribute benchmark against the execution core, the ambient CLI
// named in SPEC_FULL.md's package layout. Grounded on
// util/expensivequery/expensivequery.go's goroutine+config idiom: a
// small flag-parsed driver that loads config.Config, starts the
// internal/exec.Watchdog alongside the work, and logs structured
// results through internal/logutil rather than printing ad hoc.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/config"
	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/scidb-go/arraydb/internal/exec"
	"github.com/scidb-go/arraydb/internal/logutil"
	"github.com/scidb-go/arraydb/internal/sg"
	"github.com/scidb-go/arraydb/internal/sortexec"
	"github.com/scidb-go/arraydb/internal/storage"
	"go.uber.org/zap"
)

func main() {
	mode := flag.String("mode", "sort", "benchmark to run: sort | sg")
	numTuples := flag.Int("tuples", 100000, "number of tuples to sort (sort mode)")
	memLimit := flag.Int64("mem-limit", 0, "override config.MemLimit in bytes (0 keeps default)")
	nStreams := flag.Int("n-streams", 0, "override config.NStreams (0 keeps default)")
	numSources := flag.Int("sg-sources", 4, "number of synthetic SG sources (sg mode)")
	chunksPerSource := flag.Int("sg-chunks", 25, "chunks per SG source (sg mode)")
	configFile := flag.String("config", "", "optional TOML config file")
	logLevel := flag.String("log-level", "info", "zap log level")
	flag.Parse()

	if err := logutil.Init(logutil.Config{Level: *logLevel}); err != nil {
		fmt.Fprintln(os.Stderr, "logutil.Init:", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			logutil.BgLogger().Fatal("load config", zap.Error(err))
		}
		cfg = loaded
	}
	if *memLimit > 0 {
		cfg.MemLimit = *memLimit
	}
	if *nStreams > 0 {
		cfg.NStreams = *nStreams
	}
	config.StoreGlobalConfig(cfg)

	watchdog := exec.NewWatchdog(cfg.AlertMemoryQuotaInstance)
	go watchdog.Run()
	defer watchdog.Stop()

	switch *mode {
	case "sort":
		runSortBenchmark(cfg, *numTuples)
	case "sg":
		runSGBenchmark(cfg, *numSources, *chunksPerSource)
	default:
		logutil.BgLogger().Fatal("unknown -mode", zap.String("mode", *mode))
	}
}

type randomTupleSource struct {
	remaining int
	rng       *rand.Rand
}

func (s *randomTupleSource) Next(ctx context.Context) (sortexec.Tuple, bool, error) {
	if s.remaining == 0 {
		return sortexec.Tuple{}, false, nil
	}
	s.remaining--
	v := s.rng.Int63n(1 << 40)
	return sortexec.Tuple{Values: []interface{}{v}}, true, nil
}

func runSortBenchmark(cfg *config.Config, numTuples int) {
	cmp := sortexec.TupleComparator{KeyColumns: []int{0}}
	engine := sortexec.NewEngine(cfg, cmp, 1, nil)
	src := &randomTupleSource{remaining: numTuples, rng: rand.New(rand.NewSource(1))}

	start := time.Now()
	result, err := engine.Sort(context.Background(), src, true)
	if err != nil {
		logutil.BgLogger().Fatal("sort failed", zap.Error(err))
	}
	elapsed := time.Since(start)

	count, sorted := verifySorted(result)
	logutil.BgLogger().Info("sort benchmark complete",
		zap.Int("tuples", numTuples),
		zap.Int("outputCells", count),
		zap.Bool("sorted", sorted),
		zap.Duration("elapsed", elapsed),
		zap.Int64("memLimit", cfg.MemLimit),
		zap.Int("nStreams", cfg.NStreams),
	)
}

func verifySorted(ma *chunk.MemArray) (count int, sorted bool) {
	it, err := ma.ConstIterator(0)
	if err != nil {
		logutil.BgLogger().Fatal("open result iterator", zap.Error(err))
	}
	sorted = true
	var prev int64
	first := true
	for !it.End() {
		c, err := it.GetChunk()
		if err != nil {
			logutil.BgLogger().Fatal("read result chunk", zap.Error(err))
		}
		for i := 0; i < c.NumCells(); i++ {
			v, live := c.CellAt(i)
			if !live {
				continue
			}
			x := v.(int64)
			if !first && x < prev {
				sorted = false
			}
			prev, first = x, false
			count++
		}
		it.Next()
	}
	return count, sorted
}

func sgTestDims() []coord.Dimension {
	return []coord.Dimension{{Name: "x", StartMin: 0, EndMax: -1, CurrStart: 0, CurrEnd: -1, ChunkInterval: 10}}
}

func mkSyntheticSource(attrID, n int, offset int64) *chunk.MemArray {
	desc := coord.ArrayDesc{
		Name:       "bench",
		Attributes: []coord.Attribute{{ID: 0, Name: "v", TypeID: "int64"}},
		Dimensions: sgTestDims(),
	}
	ma := chunk.NewMemArray(desc)
	for i := 0; i < n; i++ {
		pos := offset + int64(i)*10
		addr := coord.Address{AttrID: attrID, ChunkCoord: coord.Coordinates{pos}}
		ma.PutChunk(chunk.NewChunk(addr, sgTestDims(), coord.Coordinates{pos}))
	}
	return ma
}

func runSGBenchmark(cfg *config.Config, numSources, chunksPerSource int) {
	producers := map[int]sg.Producer{}
	for s := 1; s <= numSources; s++ {
		src := mkSyntheticSource(0, chunksPerSource, int64(s-1))
		it, err := src.ConstIterator(0)
		if err != nil {
			logutil.BgLogger().Fatal("open source iterator", zap.Error(err))
		}
		producers[s] = sg.NewArrayProducer(s, 0, it, storage.CompressionSnappy)
	}
	transport := sg.NewChanTransport(0, producers, cfg.ReceiveQueueSize)

	sources := make([]int, 0, numSources)
	for s := 1; s <= numSources; s++ {
		sources = append(sources, s)
	}

	start := time.Now()
	core := sg.NewPullSGArray(context.Background(), transport, 0, 0, cfg.ReceiveQueueSize, sources)
	blocking := sg.NewPullSGArrayBlocking(map[int]*sg.PullSGArray{0: core})

	var positions []int64
	err := blocking.PullAttributes(context.Background(), []int{0}, func(attrID int, c *chunk.Chunk) error {
		positions = append(positions, c.FirstPos()[0])
		return nil
	})
	if err != nil {
		logutil.BgLogger().Fatal("sg benchmark failed", zap.Error(err))
	}
	elapsed := time.Since(start)

	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	logutil.BgLogger().Info("sg benchmark complete",
		zap.Int("sources", numSources),
		zap.Int("chunksPerSource", chunksPerSource),
		zap.Int("chunksReceived", len(positions)),
		zap.Duration("elapsed", elapsed),
	)
}
