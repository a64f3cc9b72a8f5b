// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the assignment, reclamation and verification logic, which depend only
// on the conditional, per-record operations declared here.
package store
