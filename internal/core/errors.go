package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mdobak/go-xerrors"
)

var (
	ErrNotFound               = xerrors.Message("No article found")
	ErrForbidden              = xerrors.Message("You do not have permission to perform this action")
	ErrAuthenticationRequired = xerrors.Message("Authentication credentials were not provided")
)

// ValidationError maps request fields to the first rule they broke.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("%s parameter is required", e.Name)
}
