package spectra

import "fmt"

// TargetIndex maps target ids to the rows that hold their exposures.
// Targets are kept in first-seen order.
type TargetIndex struct {
	order []int64
	rows  map[int64][]int
}

// NewTargetIndex indexes a per-row target id column.
func NewTargetIndex(ids []int64) *TargetIndex {
	x := &TargetIndex{rows: make(map[int64][]int)}
	for row, id := range ids {
		if _, ok := x.rows[id]; !ok {
			x.order = append(x.order, id)
		}
		x.rows[id] = append(x.rows[id], row)
	}
	return x
}

// Len returns the number of distinct targets.
func (x *TargetIndex) Len() int { return len(x.order) }

// Targets returns the distinct target ids in first-seen order.
func (x *TargetIndex) Targets() []int64 {
	out := make([]int64, len(x.order))
	copy(out, x.order)
	return out
}

// Rows returns the row indices of target id in ascending order.
func (x *TargetIndex) Rows(id int64) ([]int, error) {
	rows := x.rows[id]
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows for target %d", ErrEmptySelection, id)
	}
	out := make([]int, len(rows))
	copy(out, rows)
	return out, nil
}

// First returns the first row of target id.
func (x *TargetIndex) First(id int64) (int, error) {
	rows := x.rows[id]
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: no rows for target %d", ErrEmptySelection, id)
	}
	return rows[0], nil
}

// Multiple reports whether any target has more than one row.
func (x *TargetIndex) Multiple() bool {
	for _, rows := range x.rows {
		if len(rows) > 1 {
			return true
		}
	}
	return false
}
