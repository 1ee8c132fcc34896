// Package validation checks request payloads and, at startup, the services the server
// depends on.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/zfogg/screams/backend/internal/models"
)

// Messages returned in field-keyed validation bodies
const (
	MsgEmpty          = "Must not be empty"
	MsgInvalidEmail   = "Must be a valid email address"
	MsgPasswordsMatch = "Passwords must match"
	MsgInvalid        = "Is invalid"
)

// Custom binding tags
const (
	tagNotBlank = "notblank"
	tagEmail    = "emailaddr"
)

var emailRegex = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

// SignupRequest is the body of POST /signup
type SignupRequest struct {
	Email           string `json:"email" binding:"notblank,emailaddr"`
	Password        string `json:"password" binding:"notblank"`
	ConfirmPassword string `json:"confirmPassword" binding:"eqfield=Password"`
	Handle          string `json:"handle" binding:"notblank"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email" binding:"notblank,emailaddr"`
	Password string `json:"password" binding:"notblank"`
}

// RecoverPasswordRequest is the body of POST /resetPassword
type RecoverPasswordRequest struct {
	Email string `json:"email" binding:"emailaddr"`
}

// ResetPasswordRequest is the body of POST /resetPassword/confirm
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"notblank"`
	Password        string `json:"password" binding:"notblank"`
	ConfirmPassword string `json:"confirmPassword" binding:"eqfield=Password"`
}

// BodyRequest carries the text of a scream or a comment
type BodyRequest struct {
	Body string `json:"body" binding:"notblank"`
}

func init() {
	if err := registerValidators(); err != nil {
		panic(err)
	}
}

// registerValidators adds the custom tags to gin's validator and makes it report fields by
// their JSON names
func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator is not go-playground/validator")
	}
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation(tagNotBlank, func(fl validator.FieldLevel) bool {
		return !IsEmpty(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation(tagEmail, func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// IsEmpty reports whether s is blank
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsEmail reports whether s looks like an email address
func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// FieldErrors turns a binding error into a field-keyed body. ok is false when err is not
// a validation failure, e.g. malformed JSON.
func FieldErrors(err error) (fields map[string]string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields, true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case tagNotBlank, "required":
		return MsgEmpty
	case tagEmail:
		return MsgInvalidEmail
	case "eqfield":
		return MsgPasswordsMatch
	default:
		return MsgInvalid
	}
}

// ValidateSignup returns one message per invalid field, empty when valid
func ValidateSignup(req SignupRequest) map[string]string {
	return validate(req)
}

// ValidateLogin returns one message per invalid field, empty when valid
func ValidateLogin(req LoginRequest) map[string]string {
	return validate(req)
}

func validate(obj any) map[string]string {
	fields, ok := FieldErrors(binding.Validator.ValidateStruct(obj))
	if !ok {
		return map[string]string{}
	}
	return fields
}

// ReduceUserDetails keeps the non-blank fields and prefixes a scheme-less website with http://
func ReduceUserDetails(in models.UserDetails) models.UserDetails {
	var out models.UserDetails

	if !IsEmpty(in.Bio) {
		out.Bio = strings.TrimSpace(in.Bio)
	}
	if !IsEmpty(in.Website) {
		website := strings.TrimSpace(in.Website)
		if !strings.HasPrefix(website, "http") {
			website = "http://" + website
		}
		out.Website = website
	}
	if !IsEmpty(in.Location) {
		out.Location = strings.TrimSpace(in.Location)
	}

	return out
}
