package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v — общий валидатор; регистрации типов только в init().
var v = validator.New()

// Struct проверяет теги validate и возвращает читаемую ошибку или nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
