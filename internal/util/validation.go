package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationError 业务层字段校验错误，键为 JSON 路径，如 answers.0.question_id
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// NewValidationErrorFrom 转换 validator 等错误
func NewValidationErrorFrom(err error) *ValidationError {
	return &ValidationError{Fields: ValidationFields(err)}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, field+": "+strings.Join(msgs, ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var registerOnce sync.Once

// RegisterJSONTagNames 让 validator 报告 JSON 字段名而不是 Go 字段名
func RegisterJSONTagNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = fld.Tag.Get("form")
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// ValidateStruct 使用 gin 的校验器校验 binding 标签
func ValidateStruct(obj interface{}) error {
	RegisterJSONTagNames()
	return binding.Validator.ValidateStruct(obj)
}

// ValidationFields 把各种校验错误统一成字段 -> 消息
func ValidationFields(err error) map[string][]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			key := fieldPath(fe.Namespace())
			fields[key] = append(fields[key], fieldMessage(key, fe))
		}
		return fields
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		key := typeErr.Field
		if key == "" {
			key = "body"
		}
		return map[string][]string{key: {fmt.Sprintf("The %s field must be of type %s.", key, typeErr.Type.String())}}
	}

	return map[string][]string{"body": {err.Error()}}
}

// fieldPath "AttemptRequest.answers[0].selected_answer" -> "answers.0.selected_answer"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "min":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("The %s field must have at least %s items.", field, fe.Param())
		case reflect.String:
			return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s.", field, fe.Param())
	case "gte":
		return fmt.Sprintf("The %s field must be greater than or equal to %s.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "datetime":
		return fmt.Sprintf("The %s field must match the format %s.", field, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
