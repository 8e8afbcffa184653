// Package exec implements the operator execution skeleton (§4.7): the
// PhysicalOperator contract every plan node satisfies, the coordinator/
// worker two-phase-aggregation handshake, and a memory watchdog.
//
// Grounded on the teacher's baseExecutor embedding pattern (every executor
// embeds baseExecutor and overrides only what it needs) and on
// util/expensivequery/expensivequery.go's ticker-driven watchdog goroutine,
// generalized from a single-process query list to this execution core's
// distributed coordinator/worker model.
package exec

import (
	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/coord"
)

// ArrayDistribution is a declared input/output partitioning requirement
// (§4.7).
type ArrayDistribution struct {
	Scheme coord.PartitioningScheme
}

// PhysicalBoundaries is a conservative cell-space bounding box (§4.7).
type PhysicalBoundaries struct {
	Low, High coord.Coordinates
}

// Union returns the smallest box covering b and other.
func (b PhysicalBoundaries) Union(other PhysicalBoundaries) PhysicalBoundaries {
	if b.Low == nil {
		return other
	}
	if other.Low == nil {
		return b
	}
	low := make(coord.Coordinates, len(b.Low))
	high := make(coord.Coordinates, len(b.High))
	for i := range low {
		low[i] = minI64(b.Low[i], other.Low[i])
		high[i] = maxI64(b.High[i], other.High[i])
	}
	return PhysicalBoundaries{Low: low, High: high}
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// PhysicalOperator is the contract every plan node satisfies (§4.7).
type PhysicalOperator interface {
	RequiresRedistribute(inputSchemas []coord.ArrayDesc) []ArrayDistribution
	GetOutputDistribution(inputs []ArrayDistribution, schemas []coord.ArrayDesc) ArrayDistribution
	GetOutputBoundaries(inputBounds []PhysicalBoundaries, schemas []coord.ArrayDesc) PhysicalBoundaries
	ChangesDistribution(schemas []coord.ArrayDesc) bool
	OutputFullChunks(schemas []coord.ArrayDesc) bool
	Execute(q *Query, inputs []chunk.Array) (chunk.Array, error)
	IsAgg() bool
}

// CoordinatorHooks is implemented by operators that need coordinator-only
// setup/teardown around Execute (§4.7's preSingleExecute/postSingleExecute).
type CoordinatorHooks interface {
	PreSingleExecute(q *Query) error
	PostSingleExecute(q *Query) error
}

// BaseOperator supplies conservative defaults for every PhysicalOperator
// method, mirroring baseExecutor: concrete operators embed it and override
// only what differs (§9's "deep inheritance" redesign note resolved as
// embedding-by-ownership rather than a class hierarchy).
type BaseOperator struct{}

func (BaseOperator) RequiresRedistribute(schemas []coord.ArrayDesc) []ArrayDistribution {
	return make([]ArrayDistribution, len(schemas))
}

func (BaseOperator) GetOutputDistribution(inputs []ArrayDistribution, schemas []coord.ArrayDesc) ArrayDistribution {
	if len(inputs) > 0 {
		return inputs[0]
	}
	return ArrayDistribution{}
}

func (BaseOperator) GetOutputBoundaries(inputBounds []PhysicalBoundaries, schemas []coord.ArrayDesc) PhysicalBoundaries {
	var out PhysicalBoundaries
	for _, b := range inputBounds {
		out = out.Union(b)
	}
	return out
}

func (BaseOperator) ChangesDistribution(schemas []coord.ArrayDesc) bool { return false }

func (BaseOperator) OutputFullChunks(schemas []coord.ArrayDesc) bool { return true }

func (BaseOperator) IsAgg() bool { return false }
