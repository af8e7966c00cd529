// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// Table errors
	CodeTableNotFound       Code = "TABLE_NOT_FOUND"
	CodeTableInvalid        Code = "TABLE_INVALID"
	CodeTableFormulaInvalid Code = "TABLE_FORMULA_INVALID"
	CodeTableRecursionLimit Code = "TABLE_RECURSION_LIMIT"
	CodeTableKindInvalid    Code = "TABLE_KIND_INVALID"

	// Pack errors
	CodePackNotFound Code = "PACK_NOT_FOUND"
	CodePackReadOnly Code = "PACK_READ_ONLY"

	// Request errors
	CodeFilterInvalid  Code = "FILTER_INVALID"
	CodeRequestInvalid Code = "REQUEST_INVALID"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Validation failures, bad input
	case CodeTableInvalid,
		CodeTableFormulaInvalid,
		CodeTableKindInvalid,
		CodeFilterInvalid,
		CodeRequestInvalid:
		return http.StatusBadRequest

	// Resource doesn't exist
	case CodeNotFound,
		CodeTableNotFound,
		CodePackNotFound:
		return http.StatusNotFound

	// State doesn't allow the operation
	case CodePackReadOnly:
		return http.StatusConflict
	case CodeAlreadyExists:
		return http.StatusConflict

	// A malformed or cyclic table graph; the request itself was well formed.
	case CodeTableRecursionLimit:
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}
