package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"account-api/internal/apperror"
)

// Códigos de error de Postgres clasificados por el normalizador.
const (
	pgUniqueViolation  = "23505"
	pgNotNullViolation = "23502"
	pgCheckViolation   = "23514"
	pgStringTooLong    = "22001"
	pgInvalidTextRepr  = "22P02"
)

// ErrorHandler es el único punto que traduce errores a respuestas
// HTTP. Los handlers registran errores con c.Error y abortan; aquí se
// clasifican en orden y gana la primera coincidencia.
func ErrorHandler(logger *zap.Logger, dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		if appErr := classify(err); appErr != nil {
			body := gin.H{"status": appErr.Status, "message": appErr.Message}
			if len(appErr.Fields) > 0 {
				body["errors"] = appErr.Fields
			}
			if dev {
				body["error"] = err.Error()
			}
			c.JSON(appErr.Status, body)
			return
		}

		// Errores no operacionales: detalle solo en desarrollo.
		logger.Error("unexpected error", zap.Error(err))
		if dev {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  http.StatusInternalServerError,
				"message": err.Error(),
				"error":   err.Error(),
				"stack":   string(debug.Stack()),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Something went wrong! Please try again later.",
		})
	}
}

func classify(err error) *apperror.Error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Operational {
		return appErr
	}

	var castErr *apperror.CastError
	if errors.As(err, &castErr) {
		return apperror.BadRequest(fmt.Sprintf("Invalid value for %s: %s!", castErr.Field, castErr.Value))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			field := constraintField(pgErr.ConstraintName)
			return apperror.BadRequest(fmt.Sprintf("There is already a record with %s. Please use another value!", field))
		case pgNotNullViolation:
			return apperror.NewValidation("Invalid input data: ", apperror.Fields{
				columnField(pgErr.ColumnName): pgErr.Message,
			})
		case pgCheckViolation, pgStringTooLong:
			return apperror.NewValidation("Invalid input data: ", apperror.Fields{
				constraintField(pgErr.ConstraintName): pgErr.Message,
			})
		case pgInvalidTextRepr:
			return apperror.BadRequest(fmt.Sprintf("Invalid value: %s!", pgErr.Message))
		}
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperror.NewValidation("Invalid input data: ", validationFields(verrs))
	}

	if isMalformedBody(err) {
		return apperror.BadRequest("Invalid request body")
	}

	return nil
}

// constraintField extrae el campo desde un nombre de constraint tipo
// users_email_key o users_first_name_check.
func constraintField(name string) string {
	field := strings.TrimPrefix(name, "users_")
	field = strings.TrimSuffix(field, "_key")
	field = strings.TrimSuffix(field, "_check")
	return columnField(field)
}

func columnField(column string) string {
	switch column {
	case "first_name":
		return "firstName"
	case "last_name":
		return "lastName"
	case "":
		return "all"
	}
	return column
}

func isMalformedBody(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
