package chunk

// RLESegment is one run in an RLE-encoded chunk payload (§3): a run of
// runLength consecutive logical positions starting at segment, all sharing
// one value (sameValueFlag) referenced by valueIndex, or each carrying its
// own value out of the value table starting at valueIndex.
type RLESegment struct {
	Segment       int
	RunLength     int
	SameValueFlag bool
	ValueIndex    int
}

// RLEPayload is the default on-disk/wire chunk encoding (§3): a sequence
// of segments plus a flat value table. The alternative encoding is an
// externally provided materialized layout, represented here simply as the
// dense Chunk itself (no conversion needed).
type RLEPayload struct {
	Segments []RLESegment
	Values   []CellValue
	NCells   int
}

// EncodeRLE converts the chunk's dense [firstPosWithOverlap,
// lastPosWithOverlap] cell range into an RLE payload, run-length-encoding
// consecutive equal live values and leaving holes (non-live cells)
// implicit between segments.
func EncodeRLE(c *Chunk) *RLEPayload {
	payload := &RLEPayload{NCells: len(c.cells)}
	i := 0
	for i < len(c.cells) {
		if !c.bitmap.IsSet(i) {
			i++
			continue
		}
		start := i
		val := c.cells[i]
		runLen := 1
		i++
		for i < len(c.cells) && c.bitmap.IsSet(i) && equalValue(c.cells[i], val) {
			runLen++
			i++
		}
		valueIdx := len(payload.Values)
		payload.Values = append(payload.Values, val)
		payload.Segments = append(payload.Segments, RLESegment{
			Segment:       start,
			RunLength:     runLen,
			SameValueFlag: true,
			ValueIndex:    valueIdx,
		})
	}
	return payload
}

// DecodeRLE materializes an RLE payload back into a dense chunk in place,
// the inverse of EncodeRLE. The chunk must already be sized to
// payload.NCells (callers use NewChunk with matching dimensions).
func DecodeRLE(c *Chunk, payload *RLEPayload) {
	for i := range c.cells {
		c.bitmap.Clear(i)
	}
	for _, seg := range payload.Segments {
		val := payload.Values[seg.ValueIndex]
		for off := 0; off < seg.RunLength; off++ {
			pos := seg.Segment + off
			if pos >= len(c.cells) {
				break
			}
			c.cells[pos] = val
			c.bitmap.Set(pos)
		}
	}
}

func equalValue(a, b CellValue) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
