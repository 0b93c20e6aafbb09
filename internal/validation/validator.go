// Package validation はgo-playground/validatorによる構造体バリデーションを提供する。
// バリデータは1つのインスタンスを共有し、構造体のタグ解析結果をキャッシュする。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/tastebuddiez/internal/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError は1フィールド分のバリデーションエラー。
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// Error はerrorインターフェースを実装する。
func (e FieldError) Error() string {
	return e.Message
}

// RequestValidationError はバリデーションエラーの集合。
type RequestValidationError struct {
	Fields []FieldError
}

// Error はerrorインターフェースを実装する。
func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// ToAPIError はVALIDATION_ERRORのAPIErrorに変換する。
func (ve *RequestValidationError) ToAPIError() *model.APIError {
	return model.NewValidationError(ve.Error())
}

// GetValidator は共有のバリデータを返す。並行に呼び出してよい。
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// エラーメッセージにはAPIで使うjson名を出す
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			switch name {
			case "-":
				return ""
			case "":
				return f.Name
			}
			return name
		})
		// 空白のみの文字列を拒否する
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// ValidateStruct は構造体を検証する。問題がなければnilを返す。
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{Fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe),
		}
	}
	return &RequestValidationError{Fields: fields}
}

// messageTemplates はパラメータを持たないタグのメッセージ。
var messageTemplates = map[string]string{
	"required":    "%s is required",
	"required_if": "%s is required",
	"notblank":    "%s must not be blank",
	"uuid":        "%s must be a valid UUID",
}

// messageWithParam はパラメータを含むタグのメッセージ。
var messageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"max":   "%s must be at most %s",
	"min":   "%s must be at least %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	if tmpl, ok := messageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
