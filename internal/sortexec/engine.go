package sortexec

import (
	"context"
	"strconv"

	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/config"
	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/scidb-go/arraydb/internal/logutil"
	"github.com/scidb-go/arraydb/internal/memory"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TupleSource is pulled sequentially by the partition step; it is the
// tuple-level analogue of fetchRowChunks's child.Next loop in
// executor/sort.go.
type TupleSource interface {
	Next(ctx context.Context) (Tuple, bool, error)
}

// Engine drives the partition → sort → spill → merge pipeline of §4.6.
type Engine struct {
	cfg        *config.Config
	cmp        TupleComparator
	nAttrs     int
	memTracker *memory.Tracker
}

// NewEngine builds a sort engine bounded by cfg's memLimit/nStreams/
// pipelineLimit (§4.6's configuration surface); cfg's numJobs is passed to
// partition but partitioning is sequential.
func NewEngine(cfg *config.Config, cmp TupleComparator, nAttrs int, parent *memory.Tracker) *Engine {
	return &Engine{cfg: cfg, cmp: cmp, nAttrs: nAttrs, memTracker: parent}
}

// Sort drains src, producing a single sorted MemArray. inputIsRandomAccess
// governs numJobs per §4.6 ("parallelism, 1 if input is not RANDOM");
// callers pass false for SINGLE_PASS inputs regardless of cfg.NumJobs.
func (e *Engine) Sort(ctx context.Context, src TupleSource, inputIsRandomAccess bool) (*chunk.MemArray, error) {
	numJobs := e.cfg.NumJobs
	if !inputIsRandomAccess || numJobs < 1 {
		numJobs = 1
	}

	results, err := e.partition(ctx, src, numJobs)
	if err != nil {
		return nil, err
	}

	final, err := e.mergeDown(results)
	if err != nil {
		return nil, err
	}
	return e.materialize(final)
}

// partition fills successive TupleArray runs from src, sealing (sorting)
// each one at memLimit and triggering an incremental merge once more than
// nStreams runs have accumulated or pipelineLimit runs are alive at once
// (§4.6 steps 1 and 3).
func (e *Engine) partition(ctx context.Context, src TupleSource, numJobs int) ([]*TupleArray, error) {
	var results []*TupleArray
	cur := NewTupleArray(e.nAttrs, e.cmp, e.cfg.MemLimit, e.memTracker)

	seal := func() {
		cur.Sort()
		results = append(results, cur)
		cur = NewTupleArray(e.nAttrs, e.cmp, e.cfg.MemLimit, e.memTracker)
	}

	for {
		t, ok, err := src.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := cur.Add(t); err != nil {
			return nil, err
		}
		if cur.Full() {
			seal()
		}
		if len(results) > e.cfg.NStreams || len(results) >= e.cfg.PipelineLimit {
			merged, err := e.mergeOnce(results, min(e.cfg.NStreams, len(results)))
			if err != nil {
				return nil, err
			}
			results = merged
		}
	}
	if cur.NumTuples() > 0 {
		seal()
	} else {
		cur.Release()
	}
	logutil.BgLogger().Debug("sort partition complete", zap.Int("runs", len(results)), zap.Int("numJobs", numJobs))
	return results, nil
}

// mergeOnce pops the first n runs and replaces them with one merged run,
// the scheduler's "merge job" (§4.6 step 2).
func (e *Engine) mergeOnce(runs []*TupleArray, n int) ([]*TupleArray, error) {
	if n < 2 {
		return runs, nil
	}
	popped := runs[:n]
	rest := runs[n:]
	merged, err := e.mergeRuns(popped)
	if err != nil {
		return nil, err
	}
	return append([]*TupleArray{merged}, rest...), nil
}

// mergeDown repeatedly merges groups of up to nStreams runs, in parallel
// across groups via errgroup, until a single run remains (§4.6 step 3's
// terminal case: "not completed and results.size() < pipelineLimit;
// otherwise schedule a merge").
func (e *Engine) mergeDown(runs []*TupleArray) (*TupleArray, error) {
	for len(runs) > 1 {
		groups := chunkRuns(runs, e.cfg.NStreams)
		merged := make([]*TupleArray, len(groups))
		g, _ := errgroup.WithContext(context.Background())
		for i, grp := range groups {
			i, grp := i, grp
			g.Go(func() error {
				m, err := e.mergeRuns(grp)
				if err != nil {
					return err
				}
				merged[i] = m
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		runs = merged
	}
	if len(runs) == 0 {
		return NewTupleArray(e.nAttrs, e.cmp, e.cfg.MemLimit, e.memTracker), nil
	}
	return runs[0], nil
}

func chunkRuns(runs []*TupleArray, n int) [][]*TupleArray {
	if n < 2 {
		n = 2
	}
	var groups [][]*TupleArray
	for i := 0; i < len(runs); i += n {
		end := i + n
		if end > len(runs) {
			end = len(runs)
		}
		groups = append(groups, runs[i:end])
	}
	return groups
}

// mergeRuns k-way merges runs (already individually sorted) into a single
// new TupleArray via MergeSortArray (§4.6 step 2).
func (e *Engine) mergeRuns(runs []*TupleArray) (*TupleArray, error) {
	if len(runs) == 1 {
		return runs[0], nil
	}
	m := NewMergeSortArray(runs, e.cmp)
	out := NewTupleArray(e.nAttrs, e.cmp, e.cfg.MemLimit*int64(len(runs)), e.memTracker)
	for {
		t, ok := m.Next()
		if !ok {
			break
		}
		out.tuples = append(out.tuples, t)
	}
	for _, r := range runs {
		r.Release()
	}
	return out, nil
}

// materialize writes a fully-merged run into a MemArray with one unbounded
// dimension n and a synthetic empty tag (§4.6's output shape).
func (e *Engine) materialize(run *TupleArray) (*chunk.MemArray, error) {
	desc := coord.ArrayDesc{
		Name: "sorted",
		Dimensions: []coord.Dimension{
			{Name: "n", StartMin: 0, EndMax: -1, CurrStart: 0, CurrEnd: -1, ChunkInterval: defaultSortChunkInterval},
		},
	}
	for i := 0; i < e.nAttrs; i++ {
		desc.Attributes = append(desc.Attributes, coord.Attribute{ID: i, Name: attrName(i), TypeID: "interface{}"})
	}
	out := chunk.NewMemArray(desc)

	n := run.NumTuples()
	interval := defaultSortChunkInterval
	for start := 0; start < n; start += interval {
		end := start + interval
		if end > n {
			end = n
		}
		for attrID := 0; attrID < e.nAttrs; attrID++ {
			addr := coord.Address{AttrID: attrID, ChunkCoord: coord.Coordinates{int64(start)}}
			c := chunk.NewChunk(addr, desc.Dimensions, coord.Coordinates{int64(start)})
			for i := start; i < end; i++ {
				t := run.At(i)
				c.Set(coord.Coordinates{int64(i)}, t.Values[attrID])
			}
			out.PutChunk(c)
		}
	}
	return out, nil
}

const defaultSortChunkInterval = 1000

func attrName(i int) string {
	return "a" + strconv.Itoa(i)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
