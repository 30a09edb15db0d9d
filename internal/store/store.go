// Package store holds the storage implementations of the article and user
// repositories: PostgreSQL for deployments and an in-memory store for tests
// and local runs.
package store

import "github.com/mdobak/go-xerrors"

var (
	ErrNoRecordFound  = xerrors.Message("No record found")
	ErrDuplicatedSlug = xerrors.Message("Duplicate slug")
	ErrUnknownAuthor  = xerrors.Message("Unknown author")
)
