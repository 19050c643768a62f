// Package validator wraps go-playground struct validation behind a single
// helper that reports failures as a field-to-rule map, ready to embed in an
// API error message.
package validator

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate checks v against its validate tags. It returns nil on success,
// otherwise a map of failing field names to the rule each one broke.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	for _, fe := range err.(validator.ValidationErrors) {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
