// Package validation checks request payloads before they reach the store:
// struct tags via go-playground/validator and script injection in free text
// via libinjection.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/go-playground/validator/v10"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates v's `validate` tags. Failures wrap apperrors.ErrValidation.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed rule '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed rule '%s'", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.Join(msgs, "; "))
}

// InjectionFinding names a field whose value looks like a script injection payload.
type InjectionFinding struct {
	Field string
	Value string
}

// CheckFreeText runs libinjection's XSS detector over each value.
// Only string fields that are rendered back to a browser need checking.
// Findings are sorted by field name.
func CheckFreeText(fields map[string]string) []InjectionFinding {
	var findings []InjectionFinding
	for field, value := range fields {
		if value == "" {
			continue
		}
		if libinjection.IsXSS(value) {
			findings = append(findings, InjectionFinding{Field: field, Value: value})
		}
	}
	sort.Slice(findings, func(i, j int) bool { return findings[i].Field < findings[j].Field })
	return findings
}

// MarkupError reports free text rejected as a script payload.
// It matches apperrors.ErrValidation under errors.Is.
type MarkupError struct {
	Findings []InjectionFinding
}

func (e *MarkupError) Error() string {
	names := make([]string, len(e.Findings))
	for i, f := range e.Findings {
		names[i] = f.Field
	}
	return fmt.Sprintf("%v: markup is not allowed in %s", apperrors.ErrValidation, strings.Join(names, ", "))
}

func (e *MarkupError) Unwrap() error {
	return apperrors.ErrValidation
}

// FindingsError converts findings into a *MarkupError, or nil when there are none.
func FindingsError(findings []InjectionFinding) error {
	if len(findings) == 0 {
		return nil
	}
	return &MarkupError{Findings: findings}
}
