package travito

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Registration is the sign-up payload
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// SignInCredentials is the credentials-provider payload
type SignInCredentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl"`
}

// CredentialsValidator validates credentials during sign-in and returns the user
type CredentialsValidator func(ctx context.Context, email, password string) (*User, error)

// CreateUserFunc creates a new user from a registration
type CreateUserFunc func(ctx context.Context, reg *Registration) (*User, error)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors line up with the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// max counts runes; bcrypt limits bytes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return v
}

// ValidateStruct runs the struct's validate tags and converts the first
// failure into an AuthError.
func ValidateStruct(s any) *AuthError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewAuthError(ErrCodeInvalidPayload, "Invalid request", "").Wrap(ErrValidation)
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return NewAuthError(ErrCodeMissingField, field+" is required", field).Wrap(ErrValidation)
	case "email":
		return NewAuthError(ErrCodeInvalidEmail, "Invalid email format", field).Wrap(ErrValidation)
	case "max", "maxbytes":
		return NewAuthError(ErrCodeTooLong, field+" is too long", field).Wrap(ErrValidation)
	default:
		return NewAuthError(ErrCodeMissingField, field+" is invalid", field).Wrap(ErrValidation)
	}
}
