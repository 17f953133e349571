// Package inputval validates request payloads.
//
// Request structs declare rules with `validate` tags (go-playground
// validator) and may carry a `msg` tag with the human-readable message
// returned when that field fails. Only the first failing field is
// reported, as an apierr validation error.
package inputval

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/limits"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	once sync.Once
	v    *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return primitive.IsValidObjectID(fl.Field().String())
		})
	})
	return v
}

// Struct validates s and returns the first failure as an *apierr.Error.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return apierr.Internal(err)
	}
	fe := ves[0]
	return apierr.Validation(fe.Field(), "body", message(s, fe))
}

// message looks up the `msg` tag for the failing field, falling back to a
// generic sentence.
func message(s any, fe validator.FieldError) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if m := f.Tag.Get("msg"); m != "" {
				return m
			}
		}
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s should be required.", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s should be one of: %s.", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s should be a valid email.", fe.Field())
	case "objectid":
		return fmt.Sprintf("%s should be a valid id.", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}

// DecodeJSON reads a bounded JSON body into dst and validates it.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierr.Validation("", "body", "Request body should not be empty.")
		}
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return apierr.Validation(ute.Field, "body", fmt.Sprintf("%s has the wrong type.", ute.Field))
		}
		return apierr.Validation("", "body", "Request body should be valid JSON.")
	}
	return Struct(dst)
}

// ObjectID parses a hex id taken from the named path/query location.
func ObjectID(raw, path, location string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apierr.Validation(path, location, fmt.Sprintf("%s should be a valid id.", path))
	}
	return id, nil
}
