package rowcollection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendItemAndReadBack(t *testing.T) {
	rc := NewRowCollection[string](0, nil)

	rowA := UnknownRowID
	rc.AppendItem(&rowA, "groupA", Row{int64(1), "x"})
	rc.AppendItem(&rowA, "groupA", Row{int64(2), "y"})

	rowB := UnknownRowID
	rc.AppendItem(&rowB, "groupB", Row{int64(3), "z"})

	require.True(t, rc.ExistsGroup("groupA"))
	require.False(t, rc.ExistsGroup("groupC"))
	require.Equal(t, rowA, rc.RowIDFromExistingGroup("groupA"))

	rc.SwitchMode(ModeRead)
	require.Equal(t, 2, rc.NumRows())

	it := rc.OpenRow(rowA)
	var got []Row
	for !it.End() {
		got = append(got, it.GetItem())
		it.Next()
	}
	require.Equal(t, []Row{{int64(1), "x"}, {int64(2), "y"}}, got)
}

func TestAppendItemReusesRowID(t *testing.T) {
	rc := NewRowCollection[string](0, nil)

	rowA := UnknownRowID
	rc.AppendItem(&rowA, "groupA", Row{int64(1)})
	secondCallID := rowA
	rc.AppendItem(&rowA, "ignoredGroup", Row{int64(2)})
	require.Equal(t, secondCallID, rowA)

	rc.SwitchMode(ModeRead)
	it := rc.OpenRow(rowA)
	require.Equal(t, Row{int64(1)}, it.GetItem())
	it.Next()
	require.Equal(t, Row{int64(2)}, it.GetItem())
}

func TestFlushOnThreshold(t *testing.T) {
	rc := NewRowCollection[string](1, nil) // flush after first append

	rowA := UnknownRowID
	rc.AppendItem(&rowA, "groupA", Row{int64(1)})
	require.Equal(t, int64(0), rc.sizeBuffered)
}

func TestRowIteratorSetPositionAndReset(t *testing.T) {
	rc := NewRowCollection[string](0, nil)
	rowA := UnknownRowID
	rc.AppendItem(&rowA, "groupA", Row{int64(1)})
	rc.AppendItem(&rowA, "groupA", Row{int64(2)})
	rc.AppendItem(&rowA, "groupA", Row{int64(3)})
	rc.SwitchMode(ModeRead)

	it := rc.OpenRow(rowA)
	require.True(t, it.SetPosition(2))
	require.Equal(t, Row{int64(3)}, it.GetItem())
	require.False(t, it.SetPosition(10))

	it.Reset()
	require.Equal(t, 0, it.Position())
}

func TestSortAllRows(t *testing.T) {
	rc := NewRowCollection[string](0, nil)
	rowA := UnknownRowID
	rc.AppendItem(&rowA, "groupA", Row{int64(3)})
	rc.AppendItem(&rowA, "groupA", Row{int64(1)})
	rc.AppendItem(&rowA, "groupA", Row{int64(2)})
	rc.SwitchMode(ModeRead)

	dest := NewRowCollection[string](0, nil)
	rc.SortAllRows(0, func(a, b interface{}) bool { return a.(int64) < b.(int64) }, dest)
	dest.SwitchMode(ModeRead)

	it := dest.OpenRow(rowA)
	var vals []int64
	for !it.End() {
		vals = append(vals, it.GetItem()[0].(int64))
		it.Next()
	}
	require.Equal(t, []int64{1, 2, 3}, vals)
}
