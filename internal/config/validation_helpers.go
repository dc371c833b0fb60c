package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	peakerrors "github.com/alexisbeaulieu97/peakflow/pkg/errors"
)

// convertValidationError normalizes validator errors into peakflow validation errors.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return peakerrors.NewValidationError(field, msg, err)
	}

	return peakerrors.NewValidationError("document", err.Error(), err)
}

// yamlishFieldName drops the root type and lowercases the namespace, so
// WorkflowFile.Commands[0].Method becomes commands[0].method.
func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}
	return strings.Join(parts, ".")
}

func fieldForCommand(index int, field string) string {
	return fmt.Sprintf("commands[%d].%s", index, field)
}

func fieldForEntity(kind string, index int, field string) string {
	return fmt.Sprintf("%s[%d].%s", kind, index, field)
}
