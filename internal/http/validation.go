package http

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"account-api/internal/apperror"
)

// Los errores del validador se reportan con el nombre json del campo.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

var fieldLabels = map[string]string{
	"email":     "Email",
	"password":  "Password",
	"firstName": "First name",
	"lastName":  "Last name",
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// validationFields convierte errores del validador en un mapa campo a
// mensaje, con el primer mensaje por campo. Errores sin campo caen en
// la clave "all".
func validationFields(verrs validator.ValidationErrors) apperror.Fields {
	fields := make(apperror.Fields, len(verrs))
	for _, fe := range verrs {
		key := fe.Field()
		if key == "" {
			key = "all"
		}
		if _, ok := fields[key]; ok {
			continue
		}
		fields[key] = validationMessage(fe)
	}
	return fields
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fieldLabel(fe.Field()) + " is required"
	case "email":
		return "Invalid email"
	case "min":
		// La regla de largo mínimo de password conserva el mensaje
		// histórico del esquema original.
		if fe.Field() == "password" {
			return "Password is required"
		}
		return "Too Short!"
	case "max":
		return "Too Long!"
	default:
		return "Invalid value"
	}
}
