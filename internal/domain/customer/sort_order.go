package customer

import (
	"slices"
)

// SortOrder is the direction of a sort by available credit
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortByCredit returns a copy of customers ordered by available credit.
// The sort is stable: customers with equal credit keep their relative order.
func SortByCredit(customers []*Customer, order SortOrder) []*Customer {
	sorted := slices.Clone(customers)
	slices.SortStableFunc(sorted, func(a, b *Customer) int {
		cmp := a.AvailableCredit().Cmp(b.AvailableCredit())
		if order == SortDesc {
			return -cmp
		}
		return cmp
	})
	return sorted
}
