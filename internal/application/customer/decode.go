package customer

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/motoshop/backend/internal/domain/customer"
)

const (
	propName            = "name"
	propEmail           = "email"
	propAvailableCredit = "availableCredit"
)

// customerBody holds the undecoded properties of a create or update body
type customerBody struct {
	Name            json.RawMessage `json:"name"`
	Email           json.RawMessage `json:"email"`
	AvailableCredit json.RawMessage `json:"availableCredit"`
}

func (b customerBody) decodeInto(name, email **string, credit **float64, errs *fieldTypeErrors) error {
	if err := decodeProperty(b.Name, propName, "string", name, errs); err != nil {
		return err
	}
	if err := decodeProperty(b.Email, propEmail, "string", email, errs); err != nil {
		return err
	}
	return decodeProperty(b.AvailableCredit, propAvailableCredit, "number", credit, errs)
}

// fieldTypeErrors maps a property to the InvalidType error found while
// decoding it
type fieldTypeErrors map[string]error

// check returns the type error recorded for property, if any
func (f fieldTypeErrors) check(property string) error {
	return f[property]
}

// require is check plus an InvalidType error when the property is missing
func (f fieldTypeErrors) require(property, expected string, present bool) error {
	if err := f.check(property); err != nil {
		return err
	}
	if !present {
		return customer.NewInvalidTypeError(property, expected, "undefined")
	}
	return nil
}

// decodeProperty unmarshals one property into dst. A JSON type mismatch is
// recorded in errs and dst is reset to nil; any other error is returned.
func decodeProperty[T any](raw json.RawMessage, property, expected string, dst **T, errs *fieldTypeErrors) error {
	if len(raw) == 0 {
		return nil
	}
	err := json.Unmarshal(raw, dst)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		*dst = nil
		if *errs == nil {
			*errs = fieldTypeErrors{}
		}
		(*errs)[property] = customer.NewInvalidTypeError(property, expected, receivedType(typeErr.Value))
		return nil
	}
	return err
}

// receivedType names the JSON value described by json.UnmarshalTypeError
// ("string", "number 1e999", "bool", "array", "object")
func receivedType(value string) string {
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
