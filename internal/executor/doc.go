// Package executor answers accepted queries against the static dataset.
//
// # Pipeline
//
// A query text goes through three stages:
//
//  1. Prepare: the query package checks the text, validates and parses the
//     root arguments and extracts the tree of requested fields. Any failure
//     stops here and becomes an error envelope.
//  2. Select: SelectOrders filters and pages the orders in a fixed order
//     (delivered, country, offset, limit). SelectUsers returns every user.
//  3. Project: each selected record is pruned to exactly the requested
//     shape. Scalars are copied, single objects recurse, and lists map the
//     projection over every element. Field names the schema does not define
//     are dropped silently.
//
// # Envelope
//
// The result is {"data": {"<root>": [...]}} for an accepted query or
// {"errors": [{"message": "...", "extensions": {"code": "..."}}]} for a
// rejected one. Projected objects keep the field order of the request when
// encoded to JSON.
//
// Records are never modified. An Executor may be shared by any number of
// goroutines.
package executor
