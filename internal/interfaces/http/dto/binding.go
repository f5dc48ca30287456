package dto

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/motoshop/backend/internal/domain/shared"
)

// received type reported for a property that is absent from the body
const undefinedType = "undefined"

// JSONFieldName names struct fields by their json tag, falling back to the
// form tag, so validation errors refer to the property the client sent.
func JSONFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	return name
}

// BindError translates a JSON decoding or binding validation failure into
// the error answered to the client. Wrong property types and missing required
// properties become customer InvalidType errors.
func BindError(err error) *shared.DomainError {
	var (
		typeErr     *json.UnmarshalTypeError
		syntaxErr   *json.SyntaxError
		maxBytesErr *http.MaxBytesError
		validation  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &typeErr):
		return customer.NewInvalidTypeError(typeErr.Field, jsTypeName(typeErr.Type), jsonValueType(typeErr.Value))
	case errors.As(err, &validation) && len(validation) > 0:
		return fieldError(validation[0])
	case errors.As(err, &maxBytesErr):
		return shared.NewDomainErrorWithStatus(ErrCodeRequestTooLarge,
			"Request body exceeds maximum allowed size", http.StatusRequestEntityTooLarge)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return shared.NewDomainErrorWithStatus(ErrCodeInvalidJSON, "Malformed JSON request body", http.StatusBadRequest)
	default:
		return shared.NewDomainErrorWithStatus(ErrCodeInvalidJSON, err.Error(), http.StatusBadRequest)
	}
}

func fieldError(e validator.FieldError) *shared.DomainError {
	expected := jsTypeName(e.Type())
	received := undefinedType
	if e.Tag() != "required" {
		received = jsValueName(reflect.ValueOf(e.Value()))
	}
	return customer.NewInvalidTypeError(e.Field(), expected, received)
}

// jsTypeName names a Go type the way API clients see it in JSON
func jsTypeName(t reflect.Type) string {
	if t == nil {
		return "object"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return "object"
	}
}

func jsValueName(v reflect.Value) string {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return undefinedType
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return undefinedType
	}
	return jsTypeName(v.Type())
}

// jsonValueType maps the JSON value description carried by
// json.UnmarshalTypeError ("string", "number 1e999", "bool", "array",
// "object") to a client-facing type name.
func jsonValueType(value string) string {
	kind, _, _ := strings.Cut(value, " ")
	switch kind {
	case "string", "number":
		return kind
	case "bool":
		return "boolean"
	default:
		return "object"
	}
}
