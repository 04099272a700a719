package executor

import (
	dataset "github.com/hanpama/querytrainer/internal/dataset"
	query "github.com/hanpama/querytrainer/internal/query"
)

// SelectOrders applies the root arguments to orders, strictly in this order:
// delivered, country, offset, limit. Relative order is preserved. A
// negative offset counts as zero; a limit of zero or less selects nothing.
func SelectOrders(orders []dataset.Order, args query.Args) []dataset.Order {
	out := make([]dataset.Order, 0, len(orders))
	for _, o := range orders {
		if args.Delivered != nil && o.Delivery.Delivered != *args.Delivered {
			continue
		}
		if args.Country != nil && *args.Country != "" && o.Delivery.Address.Country != *args.Country {
			continue
		}
		out = append(out, o)
	}

	if args.Offset != nil {
		off := max(*args.Offset, 0)
		if off >= len(out) {
			return []dataset.Order{}
		}
		out = out[off:]
	}
	if args.Limit != nil {
		limit := *args.Limit
		if limit <= 0 {
			return []dataset.Order{}
		}
		if limit < len(out) {
			out = out[:limit]
		}
	}
	return out
}

// SelectUsers returns every user; the users root takes no arguments.
func SelectUsers(users []dataset.User) []dataset.User {
	return users
}
