// Package envstruct fills configuration structs from environment variables.
package envstruct

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrEnvNotSet    = errors.New("environment variable not set")
	ErrInvalidValue = errors.New("v must be a pointer to a struct")
)

// Populate sets the string fields of the struct pointed to by v from the
// environment. Fields opt in with an `env:"NAME"` tag and may carry an
// `envDefault:"value"` fallback. A tagged field without a value in either
// place yields ErrEnvNotSet. lookupEnv has the signature of [os.LookupEnv].
//
// All fields are processed even when some fail, and the failures are
// returned joined.
func Populate(v any, lookupEnv func(string) (string, bool)) error {
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Pointer {
		return fmt.Errorf("%w: not a pointer: %v", ErrInvalidValue, v)
	}
	target := ptr.Elem()
	if target.Kind() != reflect.Struct {
		return fmt.Errorf("%w: not a struct: %v", ErrInvalidValue, v)
	}

	var errs []error
	for _, field := range reflect.VisibleFields(target.Type()) {
		name, tagged := field.Tag.Lookup("env")
		if !tagged {
			continue
		}

		value := target.FieldByIndex(field.Index)
		if !value.CanSet() {
			errs = append(errs, fmt.Errorf("%w: cannot set field %s", ErrInvalidValue, field.Name))
			continue
		}
		if value.Kind() != reflect.String {
			errs = append(errs, fmt.Errorf("%w: field %s has unsupported type %s for env %s",
				ErrInvalidValue, field.Name, value.Kind(), name))
			continue
		}

		raw, found := lookupEnv(name)
		if !found {
			raw, found = field.Tag.Lookup("envDefault")
		}
		if !found {
			errs = append(errs, fmt.Errorf("%w: %s", ErrEnvNotSet, name))
			continue
		}

		value.SetString(raw)
	}

	return errors.Join(errs...)
}
