package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents invalid input
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError represents a conflict with existing data, e.g. a schema-name
// or field-name collision within a tenant
type ConflictError struct {
	Resource string
	Field    string
	Value    string
}

func (e *ConflictError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("%s already exists with %s='%s'", e.Resource, e.Field, e.Value)
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e *ConflictError) HTTPStatus() int {
	return http.StatusConflict
}

func (e *ConflictError) Code() string {
	return "ALREADY_EXISTS"
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, field, value string) *ConflictError {
	return &ConflictError{Resource: resource, Field: field, Value: value}
}

// DDLError represents a failed CREATE/ALTER/DROP statement. DDL failures are
// fatal for the enclosing operation: the caller must abort and leave no
// partially altered table behind.
type DDLError struct {
	Table     string
	Statement string
	Cause     error
}

func (e *DDLError) Error() string {
	return fmt.Sprintf("DDL execution failed on table '%s': %v", e.Table, e.Cause)
}

func (e *DDLError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *DDLError) Code() string {
	return "DDL_EXECUTION_ERROR"
}

func (e *DDLError) Unwrap() error {
	return e.Cause
}

// NewDDLError creates a new DDLError
func NewDDLError(table, statement string, cause error) *DDLError {
	return &DDLError{Table: table, Statement: statement, Cause: cause}
}

// IntrospectionError represents a failed catalog query (INFORMATION_SCHEMA).
// Callers degrade it to "absent" rather than failing the request, but the
// error is logged loudly so operators can tell infrastructure trouble from
// genuine absence.
type IntrospectionError struct {
	Table string
	Cause error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("catalog introspection failed for table '%s': %v", e.Table, e.Cause)
}

func (e *IntrospectionError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *IntrospectionError) Code() string {
	return "INTROSPECTION_ERROR"
}

func (e *IntrospectionError) Unwrap() error {
	return e.Cause
}

// NewIntrospectionError creates a new IntrospectionError
func NewIntrospectionError(table string, cause error) *IntrospectionError {
	return &IntrospectionError{Table: table, Cause: cause}
}

// InternalError represents unexpected server errors
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// Helper functions for error checking

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// IsDDL checks if an error is a DDLError
func IsDDL(err error) bool {
	var ddl *DDLError
	return errors.As(err, &ddl)
}

// IsIntrospection checks if an error is an IntrospectionError
func IsIntrospection(err error) bool {
	var introspection *IntrospectionError
	return errors.As(err, &introspection)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}
