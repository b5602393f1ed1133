package btree

import "fmt"

// Filter restricts a walk to an inclusive rowid range. Either bound is
// optional; the zero Filter has no bounds and matches every cell.
// A cell without a rowid never matches a bounded filter.
type Filter struct {
	min, max       int64
	hasMin, hasMax bool
}

// Between returns a filter matching rowids in [min, max].
func Between(min, max int64) Filter {
	return Filter{min: min, max: max, hasMin: true, hasMax: true}
}

// AtLeast returns a filter matching rowids >= min.
func AtLeast(min int64) Filter {
	return Filter{min: min, hasMin: true}
}

// AtMost returns a filter matching rowids <= max.
func AtMost(max int64) Filter {
	return Filter{max: max, hasMax: true}
}

// Bounded reports whether f has at least one bound.
func (f Filter) Bounded() bool {
	return f.hasMin || f.hasMax
}

// Min returns the lower bound and whether it is set.
func (f Filter) Min() (int64, bool) {
	return f.min, f.hasMin
}

// Max returns the upper bound and whether it is set.
func (f Filter) Max() (int64, bool) {
	return f.max, f.hasMax
}

// Matches reports whether cell passes the filter.
func (f Filter) Matches(cell Cell) bool {
	if !f.Bounded() {
		return true
	}
	if !cell.HasRowID() {
		return false
	}
	return f.contains(cell.RowID)
}

func (f Filter) contains(rowid int64) bool {
	if f.hasMin && rowid < f.min {
		return false
	}
	if f.hasMax && rowid > f.max {
		return false
	}
	return true
}

func (f Filter) String() string {
	switch {
	case f.hasMin && f.hasMax:
		return fmt.Sprintf("[%d, %d]", f.min, f.max)
	case f.hasMin:
		return fmt.Sprintf("[%d, )", f.min)
	case f.hasMax:
		return fmt.Sprintf("(, %d]", f.max)
	}
	return "(, )"
}
