package validate

import (
	"errors"
	"sync"

	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

// Struct validates obj against its `validate` tags.
func Struct(obj any) error {
	once.Do(func() {
		v = validator.New()
	})
	return v.Struct(obj)
}

// Request plugs Struct into hertz's BindAndValidate.
func Request(_ *protocol.Request, obj any) error {
	return Struct(obj)
}

// IsValidationErr reports whether err is a tag violation. Its message names
// fields and tags only, never the values, so it is safe to log and return.
func IsValidationErr(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
