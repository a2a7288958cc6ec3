package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/scheduler"
)

// custom validation tags
const (
	isoDateTag  = "iso_date"
	weekdayTag  = "weekday"
	examKindTag = "exam_kind"
	roleTag     = "role"
)

type inputValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var sharedValidator = sync.OnceValue(newInputValidator)

func newInputValidator() *inputValidator {
	validate := validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report the wire names of fields instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("field"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(isoDateTag, isoDateValidation)
	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	_ = validate.RegisterValidation(examKindTag, examKindValidation)
	_ = validate.RegisterValidation(roleTag, roleValidation)

	// The default translation is already registered, so a noop registration
	// func is enough to attach the custom messages.
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{isoDateTag, weekdayTag, examKindTag, roleTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomValidationErrs)
	}

	return &inputValidator{validate: validate, translator: translator}
}

// validateInput runs the struct tags of input and converts failures into a
// *ValidationError keyed by field name. It returns nil when input is valid.
func validateInput(input any) *ValidationError {
	v := sharedValidator()
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}

	vErr := &ValidationError{}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			vErr.add(fe.Field(), fe.Translate(v.translator))
		}
		return vErr
	}
	vErr.add("input", err.Error())
	return vErr
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case isoDateTag:
		return fe.Field() + " must be a date in YYYY-MM-DD form"
	case weekdayTag:
		return fe.Field() + " must fall on a weekday"
	case examKindTag:
		return fe.Field() + " must be EXAM or PROJECT"
	case roleTag:
		return fe.Field() + " must be one of " + roleLabels()
	default:
		return ""
	}
}

// Custom Validators

func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := civil.ParseDate(fl.Field().String())
	return err == nil
}

func weekdayValidation(fl validator.FieldLevel) bool {
	d, err := civil.ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	return scheduler.IsWeekday(d)
}

func examKindValidation(fl validator.FieldLevel) bool {
	_, err := parseExamKind(fl.Field().String())
	return err == nil
}

func roleValidation(fl validator.FieldLevel) bool {
	_, err := access.ParseRole(fl.Field().String())
	return err == nil
}

func roleLabels() string {
	roles := access.Roles()
	labels := make([]string, 0, len(roles))
	for _, r := range roles {
		labels = append(labels, string(r))
	}
	return strings.Join(labels, ", ")
}

func parseExamKind(value string) (ExamKind, error) {
	switch ExamKind(strings.ToUpper(strings.TrimSpace(value))) {
	case ExamKindExam:
		return ExamKindExam, nil
	case ExamKindProject:
		return ExamKindProject, nil
	default:
		return "", errors.New("unknown exam kind")
	}
}

// parseDateField parses an ISO date, reporting failures against field.
func parseDateField(field, value string) (civil.Date, *ValidationError) {
	d, err := civil.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return civil.Date{}, fieldError(field, field+" must be a date in YYYY-MM-DD form")
	}
	return d, nil
}

// timingError converts a scheduler timing failure into a field error reported
// against the caller's date and hour field names.
func timingError(err error, dateField, hourField string) error {
	var tErr *scheduler.TimingError
	if !errors.As(err, &tErr) {
		return err
	}
	switch {
	case errors.Is(err, scheduler.ErrWeekend):
		return fieldError(dateField, dateField+" must fall on a weekday")
	case errors.Is(err, scheduler.ErrHourOutOfWindow):
		return fieldError(hourField, fmt.Sprintf("%s must be between %d and %d", hourField, scheduler.FirstStartHour, scheduler.LastStartHour))
	default:
		return fieldError(dateField, dateField+" must be a valid calendar date")
	}
}
