package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"estate-listing/model"
	"estate-listing/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterValidators 注册自定义校验规则，并使用 form 标签作为字段名
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return strings.TrimSuffix(name, "[]")
	})

	return v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		if s == "" {
			return true
		}
		d, err := decimal.NewFromString(s)
		return err == nil && model.ValidPrice(d)
	})
}

// FieldErrors 将校验错误转换为 字段 -> 消息列表
func FieldErrors(err error) map[string][]string {
	out := map[string][]string{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		out["query"] = []string{"The query string is malformed."}
		return out
	}
	for _, fe := range ve {
		field := fe.Field()
		out[field] = append(out[field], fieldMessage(field, fe.Tag(), fe.Param()))
	}
	return out
}

func fieldMessage(field, tag, param string) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch tag {
	case "decimal", "numeric":
		return fmt.Sprintf("The %s field must be a number between 0 and %s.", label, model.MaxPrice.StringFixed(2))
	case "min", "gte":
		return fmt.Sprintf("The %s field must be at least %s.", label, param)
	case "max", "lte":
		return fmt.Sprintf("The %s field must not be greater than %s.", label, param)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}

// AbortWithValidation 返回 422 和字段错误
func AbortWithValidation(c *gin.Context, err error) {
	response.ErrorWithData(c, response.INVALID_PARAMS, FieldErrors(err))
	c.Abort()
}
