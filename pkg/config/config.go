// Package config loads configuration structs from YAML files and
// environment variables using `env`, `yaml`, `default` and `required`
// struct tags.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Validator interface allows config structs to implement custom validation logic.
// If a config struct implements this interface, validation will be automatically
// called after loading configuration from files and environment variables.
type Validator interface {
	Validate() error
}

// applyEnv walks the struct recursively and overlays values from the
// environment. It returns the set of fields that were explicitly set, keyed
// by "StructName.FieldName", so that defaults are not applied over them.
func applyEnv(val reflect.Value, typeOfT reflect.Type) (map[string]bool, error) {
	setFields := make(map[string]bool)

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typeOfT.Field(i)

		if field.Kind() == reflect.Struct && field.Type() != durationType {
			nested, err := applyEnv(field, fieldType.Type)
			if err != nil {
				return nil, err
			}
			for k, v := range nested {
				setFields[k] = v
			}
			continue
		}

		tag := fieldType.Tag.Get("env")
		if tag == "" {
			continue
		}
		envVal := os.Getenv(tag)
		if envVal == "" {
			continue
		}

		setFields[typeOfT.Name()+"."+fieldType.Name] = true

		if err := setValue(field, envVal); err != nil {
			return nil, fmt.Errorf("env %s: %w", tag, err)
		}
	}
	return setFields, nil
}

// setValue assigns a string representation to a reflect.Value, converting to
// the field's type. time.Duration is handled before the int kinds because it
// is an int64 underneath.
func setValue(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		duration, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %q to duration: %w", raw, err)
		}
		field.SetInt(int64(duration))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int64:
		intVal, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to convert %q to int: %w", raw, err)
		}
		field.SetInt(intVal)
	case reflect.Float64:
		floatVal, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("failed to convert %q to float64: %w", raw, err)
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %q to bool: %w", raw, err)
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		values := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), len(values), len(values))
		for i, v := range values {
			slice.Index(i).SetString(strings.TrimSpace(v))
		}
		field.Set(slice)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}

// applyDefaults fills zero-valued fields from `default` tags and reports
// missing `required` fields. A default suppresses the required check.
func applyDefaults(val reflect.Value, typeOfT reflect.Type, setFields map[string]bool) error {
	var result error
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typeOfT.Field(i)

		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := applyDefaults(field, fieldType.Type, setFields); err != nil {
				result = multierror.Append(result, err)
			}
			continue
		}

		requiredTag := strings.ToLower(fieldType.Tag.Get("required"))
		required := requiredTag == "true" || requiredTag == "1"
		defaultTag := fieldType.Tag.Get("default")
		if required && defaultTag != "" {
			required = false
		}

		if field.IsZero() && required {
			result = multierror.Append(result, fmt.Errorf(
				"required field env:%s / yaml:%s is missing",
				fieldType.Tag.Get("env"), fieldType.Tag.Get("yaml")))
			continue
		}

		fieldKey := typeOfT.Name() + "." + fieldType.Name
		if field.IsZero() && defaultTag != "" && !setFields[fieldKey] {
			if err := setValue(field, defaultTag); err != nil {
				result = multierror.Append(result, fmt.Errorf("default for %s: %w", fieldKey, err))
			}
		}
	}
	return result
}

// GetConfigFromEnvVars loads configuration from environment variables only.
// It processes struct tags: env, default, required.
func GetConfigFromEnvVars[T any](dest *T) error {
	val := reflect.ValueOf(dest).Elem()
	typeOfT := val.Type()

	setFields, err := applyEnv(val, typeOfT)
	if err != nil {
		return err
	}
	if err := applyDefaults(val, typeOfT, setFields); err != nil {
		var zero T
		*dest = zero // reset partially-populated config
		return err
	}

	if validator, ok := any(*dest).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	return nil
}

// GetConfig loads configuration from a YAML file first, then overlays
// environment variables. If filepath is empty, only environment variables are
// used. If allowFileErrors is true, file read/parse errors fall back to env
// vars only.
func GetConfig[T any](dest *T, filepath string, allowFileErrors bool) error {
	if filepath == "" {
		return GetConfigFromEnvVars(dest)
	}

	data, err := os.ReadFile(filepath) //nolint:gosec // G304: path comes from operator configuration
	if err != nil {
		if allowFileErrors {
			return GetConfigFromEnvVars(dest)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := yaml.Unmarshal(data, dest); err != nil {
		if allowFileErrors {
			return GetConfigFromEnvVars(dest)
		}
		return fmt.Errorf("failed to parse yaml: %w", err)
	}

	return GetConfigFromEnvVars(dest)
}
