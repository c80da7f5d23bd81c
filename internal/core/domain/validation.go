package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// NonFieldErrorsKey is the error key for violations not attributable to a
// single field.
const NonFieldErrorsKey = "non_field_errors"

// LocationKey is the error key for every geometry problem.
const LocationKey = "location"

// DefaultEstimatedValueCeiling is the exclusive upper bound for estimated_value.
const DefaultEstimatedValueCeiling int64 = 2_000_000_000

// Violation is a single validation failure. It is either a FieldError or a
// StructuralError.
type Violation interface {
	error
	Key() string
}

// FieldError is a violation scoped to one field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }
func (e FieldError) Key() string   { return e.Field }

// StructuralError is a violation spanning several fields or the whole record.
type StructuralError struct {
	Message string
}

func (e StructuralError) Error() string { return e.Message }
func (e StructuralError) Key() string   { return NonFieldErrorsKey }

// ValidationErrors accumulates every violation found for a record.
type ValidationErrors []Violation

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any violation is recorded under key.
func (v ValidationErrors) Has(key string) bool {
	for _, e := range v {
		if e.Key() == key {
			return true
		}
	}
	return false
}

// ByKey groups messages by error key.
func (v ValidationErrors) ByKey() map[string][]string {
	out := make(map[string][]string, len(v))
	for _, e := range v {
		var msg string
		switch t := e.(type) {
		case FieldError:
			msg = t.Message
		case StructuralError:
			msg = t.Message
		default:
			msg = e.Error()
		}
		out[e.Key()] = append(out[e.Key()], msg)
	}
	return out
}

// AddField records a field-scoped violation.
func (v *ValidationErrors) AddField(field, msg string) {
	*v = append(*v, FieldError{Field: field, Message: msg})
}

// AddStructural records a violation not scoped to a field.
func (v *ValidationErrors) AddStructural(msg string) {
	*v = append(*v, StructuralError{Message: msg})
}

// AsValidationErrors unwraps err into ValidationErrors.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// PropertyCandidate is an unvalidated property record. Nil fields were absent
// from the input.
type PropertyCandidate struct {
	PortfolioID        *int64    `json:"portfolio" validate:"required,gt=0"`
	Name               *string   `json:"name" validate:"required,min=1,max=100"`
	Address            *string   `json:"address" validate:"required,min=1,max=255"`
	ZipCode            *string   `json:"zip_code" validate:"required,zipcode"`
	City               *string   `json:"city" validate:"required,min=1,max=100"`
	Location           *GeoPoint `json:"location" validate:"-"`
	EstimatedValue     *int64    `json:"estimated_value" validate:"required,min=0"`
	RelevantRisks      *int      `json:"relevant_risks" validate:"required,min=0,max=1000"`
	HandledRisks       *int      `json:"handled_risks" validate:"required,min=0,max=1000"`
	TotalFinancialRisk *int64    `json:"total_financial_risk" validate:"required,min=0,max=1000000000"`

	// DecodeErrors holds problems found while decoding the wire format.
	// Fields listed here are not validated again.
	DecodeErrors ValidationErrors `json:"-" validate:"-"`
}

// Rules carries the configurable limits of property validation.
type Rules struct {
	EstimatedValueCeiling int64
}

// DefaultRules returns the production limits.
func DefaultRules() Rules {
	return Rules{EstimatedValueCeiling: DefaultEstimatedValueCeiling}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
	zipCodeRe    = regexp.MustCompile(`^[0-9]{4}$`)
)

// getValidator returns the shared validator, keyed by json field names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
			return zipCodeRe.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateProperty checks every field rule, then the cross-field rule, and
// returns the normalized record. All violations are reported together.
func ValidateProperty(c PropertyCandidate, rules Rules) (Property, error) {
	if rules.EstimatedValueCeiling <= 0 {
		rules.EstimatedValueCeiling = DefaultEstimatedValueCeiling
	}

	trim(c.Name)
	trim(c.Address)
	trim(c.City)
	trim(c.ZipCode)

	errs := append(ValidationErrors(nil), c.DecodeErrors...)
	decoded := func(key string) bool { return c.DecodeErrors.Has(key) }

	if err := getValidator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Property{}, fmt.Errorf("validate property: %w", err)
		}
		for _, fe := range fieldErrs {
			if decoded(fe.Field()) {
				continue
			}
			errs.AddField(fe.Field(), translate(fe))
		}
	}

	if c.EstimatedValue != nil && !errs.Has("estimated_value") && *c.EstimatedValue >= rules.EstimatedValueCeiling {
		errs.AddField("estimated_value", fmt.Sprintf("Ensure this value is less than %d.", rules.EstimatedValueCeiling))
	}

	if !decoded(LocationKey) {
		validateLocation(c.Location, &errs)
	}

	if len(errs) > 0 {
		return Property{}, errs
	}

	if *c.HandledRisks > *c.RelevantRisks {
		errs.AddStructural("Handled risks cannot exceed relevant risks.")
		return Property{}, errs
	}

	return Property{
		PortfolioID:        *c.PortfolioID,
		Name:               *c.Name,
		Address:            *c.Address,
		ZipCode:            *c.ZipCode,
		City:               *c.City,
		Location:           *c.Location,
		EstimatedValue:     *c.EstimatedValue,
		RelevantRisks:      *c.RelevantRisks,
		HandledRisks:       *c.HandledRisks,
		TotalFinancialRisk: *c.TotalFinancialRisk,
	}, nil
}

func validateLocation(p *GeoPoint, errs *ValidationErrors) {
	if p == nil {
		errs.AddField(LocationKey, "This field is required.")
		return
	}
	if p.Lon < -180 || p.Lon > 180 {
		errs.AddField(LocationKey, "Longitude must be between -180 and 180.")
	}
	if p.Lat < -90 || p.Lat > 90 {
		errs.AddField(LocationKey, "Latitude must be between -90 and 90.")
	}
}

// ValidatePortfolio checks a portfolio name and returns it trimmed.
func ValidatePortfolio(name *string) (string, error) {
	var errs ValidationErrors
	switch {
	case name == nil:
		errs.AddField("name", "This field is required.")
	case strings.TrimSpace(*name) == "":
		errs.AddField("name", "This field may not be blank.")
	case len([]rune(strings.TrimSpace(*name))) > 255:
		errs.AddField("name", "Ensure this field has no more than 255 characters.")
	}
	if len(errs) > 0 {
		return "", errs
	}
	return strings.TrimSpace(*name), nil
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// translate converts a validator failure into a client-facing message.
func translate(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "zipcode":
		return "Enter a valid zip code of exactly 4 digits."
	case "min":
		if isString {
			if fe.Param() == "1" {
				return "This field may not be blank."
			}
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation.", fe.Tag())
	}
}
