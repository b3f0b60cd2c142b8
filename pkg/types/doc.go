// Package types defines the entity structs, the loan state machine, and the
// standard errors shared by the Libris storage layer and its callers.
package types
