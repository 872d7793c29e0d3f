// Package order records membership purchases.
//
// Prices come from a fixed plan catalog and are kept as decimals. An order
// starts pending and moves once, to paid or to cancelled.
package order
