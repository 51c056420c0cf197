package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
)

const (
	messageRequired = "This field is required."
	messageBlank    = "This field may not be blank."
)

// UnmarshalBody parses and decodes a JSON request body and performs validations on it.
// Fields tagged with 'required:"true"' have to be pointers and must be present; required strings must not be blank.
// Validation failures are returned as FieldErrors, any other error means the request could not be read.
func UnmarshalBody[T any](request *http.Request) (*T, FieldErrors, error) {
	body, err := io.ReadAll(request.Body)
	if err != nil {
		return nil, nil, err
	}

	target := new(T)
	if err := json.Unmarshal(body, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			errs := FieldErrors{}
			errs.Add(typeErr.Field, fmt.Sprintf("Expected a value of type %s.", typeErr.Type.String()))
			return nil, errs, nil
		}
		errs := FieldErrors{}
		errs.Add(FieldNonField, fmt.Sprintf("JSON parse error - %s", err.Error()))
		return nil, errs, nil
	}

	errs, err := validateStruct(target)
	if err != nil {
		return nil, nil, err
	}
	if len(errs) > 0 {
		return nil, errs, nil
	}
	return target, nil, nil
}

func validateStruct(val any) (FieldErrors, error) {
	ref := reflect.ValueOf(val)
	if ref.Kind() == reflect.Pointer {
		ref = ref.Elem()
	}
	if ref.Kind() != reflect.Struct {
		return nil, errors.New("illegal call to validateStruct with non-struct parameter")
	}
	typ := ref.Type()

	errs := FieldErrors{}
	for i := 0; i < typ.NumField(); i++ {
		fieldDef := typ.Field(i)
		if !strings.EqualFold(fieldDef.Tag.Get("required"), "true") {
			continue
		}

		field := ref.Field(i)
		if field.Kind() != reflect.Pointer {
			return nil, fmt.Errorf("required field '%s' is no pointer", fieldDef.Name)
		}
		name := getFieldName(fieldDef)
		if field.IsNil() {
			errs.Add(name, messageRequired)
			continue
		}
		if elem := field.Elem(); elem.Kind() == reflect.String && strings.TrimSpace(elem.String()) == "" {
			errs.Add(name, messageBlank)
		}
	}
	return errs, nil
}

func getFieldName(def reflect.StructField) string {
	jsonVal, ok := def.Tag.Lookup("json")
	if !ok || jsonVal == "-" {
		return def.Name
	}
	name, _, _ := strings.Cut(jsonVal, ",")
	return name
}
