package apperror

import (
	"fmt"
	"net/http"
)

// Fields mapea nombre de campo a un mensaje legible.
type Fields map[string]string

// Error es un fallo operacional con estado HTTP explícito. Se propaga
// desde servicios y middlewares hasta el normalizador de errores, que
// es el único punto que lo traduce a una respuesta.
type Error struct {
	Status      int
	Message     string
	Fields      Fields
	Operational bool
}

func (e *Error) Error() string {
	return e.Message
}

// New crea un error operacional con el estado dado.
func New(message string, status int) *Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &Error{
		Status:      status,
		Message:     message,
		Operational: true,
	}
}

// NewValidation crea un error de validación con mapa de campos.
func NewValidation(message string, fields Fields) *Error {
	e := New(message, http.StatusBadRequest)
	e.Fields = fields
	return e
}

func BadRequest(message string) *Error {
	return New(message, http.StatusBadRequest)
}

func Unauthorized(message string) *Error {
	return New(message, http.StatusUnauthorized)
}

func Forbidden(message string) *Error {
	return New(message, http.StatusForbidden)
}

func NotFound(message string) *Error {
	return New(message, http.StatusNotFound)
}

func Conflict(message string) *Error {
	return New(message, http.StatusConflict)
}

// CastError señala un identificador o valor con forma inválida antes de
// llegar a la base de datos, análogo a un error de cast del ODM.
type CastError struct {
	Field string
	Value string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Value)
}

// NewCast crea un CastError para el campo y valor dados.
func NewCast(field, value string) *CastError {
	return &CastError{Field: field, Value: value}
}
