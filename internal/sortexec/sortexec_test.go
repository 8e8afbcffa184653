package sortexec

import (
	"context"
	"math/rand"
	"testing"

	"github.com/scidb-go/arraydb/internal/config"
	"github.com/scidb-go/arraydb/internal/memory"
	"github.com/scidb-go/arraydb/internal/stringutil"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	values []int64
	pos    int
}

func (s *sliceSource) Next(ctx context.Context) (Tuple, bool, error) {
	if s.pos >= len(s.values) {
		return Tuple{}, false, nil
	}
	v := s.values[s.pos]
	s.pos++
	return Tuple{Values: []interface{}{v}}, true, nil
}

func TestEngineSortAscending(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	values := make([]int64, 500)
	for i := range values {
		values[i] = rng.Int63n(10000)
	}
	src := &sliceSource{values: values}

	cfg := config.Default()
	cfg.MemLimit = 2000 // force multiple small runs
	cfg.NStreams = 2
	cfg.PipelineLimit = 4
	cfg.NumJobs = 1

	root := memory.NewTracker(stringutil.StringerStr("root"), -1)
	eng := NewEngine(cfg, TupleComparator{KeyColumns: []int{0}, Descending: []bool{false}}, 1, root)

	out, err := eng.Sort(context.Background(), src, false)
	require.NoError(t, err)

	it, err := out.ConstIterator(0)
	require.NoError(t, err)
	var sorted []int64
	for !it.End() {
		c, err := it.GetChunk()
		require.NoError(t, err)
		for i := 0; i < c.NumCells(); i++ {
			v, live := c.CellAt(i)
			if live {
				sorted = append(sorted, v.(int64))
			}
		}
		it.Next()
	}
	require.Equal(t, len(values), len(sorted))
	for i := 1; i < len(sorted); i++ {
		require.LessOrEqual(t, sorted[i-1], sorted[i])
	}
}
