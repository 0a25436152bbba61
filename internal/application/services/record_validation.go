package services

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
	apperrors "github.com/itangbaotop/manuflex-sub000/pkg/errors"
)

// evaluateValidationRules runs each field's validation rule, a boolean
// expression over the record data (e.g. "year >= 1900 && year <= 2100").
// A rule that evaluates to false, or fails to evaluate at all, rejects the
// record.
func evaluateValidationRules(s *schema.Schema, data map[string]interface{}) error {
	for _, f := range s.Fields {
		if f.ValidationRule == nil || *f.ValidationRule == "" {
			continue
		}
		if _, present := data[f.FieldName]; !present {
			continue
		}

		ok, err := evalRule(*f.ValidationRule, data)
		if err != nil {
			return apperrors.NewValidationError(f.FieldName,
				fmt.Sprintf("validation rule of '%s' failed to evaluate: %v", f.FieldName, err))
		}
		if !ok {
			return apperrors.NewValidationError(f.FieldName,
				fmt.Sprintf("value of '%s' violates its validation rule", f.FieldName))
		}
	}
	return nil
}

func evalRule(rule string, data map[string]interface{}) (bool, error) {
	program, err := expr.Compile(rule,
		expr.Env(map[string]interface{}{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return false, err
	}

	out, err := expr.Run(program, data)
	if err != nil {
		return false, err
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule did not produce a boolean")
	}
	return result, nil
}
