// Package validation checks sign-up and sign-in input before it reaches the
// credential service.
//
// Rules are declared as go-playground/validator struct tags. The tag order on
// a field is that field's rule list: the validator stops at the first failing
// tag, so each invalid field yields exactly one message and the same input
// always yields the same messages.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/user-auth/internal/apperror"
)

// Messages that clients match on.
const (
	MsgRequired         = "Required"
	MsgInvalidEmail     = "Invalid email"
	MsgPasswordMin      = "Password must be atleast of length 5"
	MsgPasswordMismatch = "Password must match"
	MsgPasswordBytes    = "Password must be at most 72 bytes"
)

// bcrypt hashes at most 72 bytes of input; a 20-character password of
// multi-byte runes can exceed that.
const maxPasswordBytes = 72

// SignUpInput is the account-creation payload.
type SignUpInput struct {
	Username        string `json:"username"        validate:"required,min=7,max=20,email"`
	Password        string `json:"password"        validate:"required,min=5,max=20,maxbytes"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,min=5,max=20,eqfield=Password"`
}

// SignInInput is the login payload. Only presence is checked server-side so
// that accounts created under older rules can still log in.
type SignInInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Errors maps a JSON field name to a human-readable message.
type Errors map[string]string

// HasAny reports whether at least one field failed.
func (e Errors) HasAny() bool {
	return len(e) > 0
}

// Merge copies other into e, overwriting messages for the same field.
func (e Errors) Merge(other Errors) Errors {
	if e == nil {
		e = Errors{}
	}
	for field, msg := range other {
		e[field] = msg
	}
	return e
}

// Validator wraps a configured *validator.Validate. It is safe for
// concurrent use.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	return &Validator{v: v}
}

// SignUp validates a sign-up payload. A nil/empty result means success.
func (v *Validator) SignUp(in SignUpInput) Errors {
	return v.check(in)
}

// SignIn validates a sign-in payload.
func (v *Validator) SignIn(in SignInInput) Errors {
	return v.check(in)
}

func (v *Validator) check(in any) Errors {
	err := v.v.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError only happens on programmer error (nil/non-struct).
		panic(fmt.Sprintf("validation: %v", err))
	}

	out := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "email":
		return MsgInvalidEmail
	case "eqfield":
		return MsgPasswordMismatch
	case "maxbytes":
		return MsgPasswordBytes
	case "min":
		if fe.Field() == "password" {
			return MsgPasswordMin
		}
		return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
	default:
		return fmt.Sprintf("Invalid value (%s)", fe.Tag())
	}
}

// DecodeSignUp reads a JSON sign-up payload.
//
// A field holding the wrong JSON type (e.g. a number for "username") is not a
// transport failure: it comes back as a per-field message in the returned
// Errors and the remaining fields are still decoded. A body that is not a
// JSON object at all is reported as an apperror.ErrValidation error.
func DecodeSignUp(r io.Reader) (SignUpInput, Errors, error) {
	var in SignUpInput
	typeErrs, err := decode(r, &in)
	return in, typeErrs, err
}

// DecodeSignIn is DecodeSignUp for the login payload.
func DecodeSignIn(r io.Reader) (SignInInput, Errors, error) {
	var in SignInInput
	typeErrs, err := decode(r, &in)
	return in, typeErrs, err
}

func decode(r io.Reader, dst any) (Errors, error) {
	err := json.NewDecoder(r).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		// An empty body decodes as an empty object; every field then fails "required".
		return nil, nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := strings.SplitN(typeErr.Field, ".", 2)[0]
		return Errors{
			field: fmt.Sprintf("Expected string, received %s", typeErr.Value),
		}, nil
	}

	return nil, apperror.ValidationFailed("", "request body must be a JSON object")
}
