// Package mocks provides shared test doubles for the word pool.
//
// MemoryWordStore is a faithful in-memory store.WordStore that enforces the
// same claim rules as the Postgres implementation, so service and handler
// tests can exercise real claim semantics without a database. The Mock*
// types follow the function-field pattern:
//
//	svc := &mocks.MockAssignmentService{
//	    ClaimNextWordFn: func(ctx context.Context, id string) (*assignment.ClaimResult, error) {
//	        return &assignment.ClaimResult{AlreadyHasWord: true}, nil
//	    },
//	}
//
// When adding a new mock, name the file after the interface and give each
// method a function field plus call tracking where tests need it.
package mocks
