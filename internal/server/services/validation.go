package services

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/loginchat/authserver/internal/common"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used for numbers given without a country code.
const DefaultPhoneRegion = "KR"

// ValidationError carries a client-facing message and matches
// common.ErrorValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return common.ErrorValidation }

// RegisterInput is the payload of an email registration.
type RegisterInput struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
}

// normalize trims the email, validates every field and rewrites the phone
// number to E.164.
func (in *RegisterInput) normalize() error {
	in.Email = normalizeEmail(in.Email)

	err := validation.ValidateStruct(in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(1, 72)),
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
	)
	if err != nil {
		return &ValidationError{Msg: err.Error()}
	}

	if in.PhoneNumber != nil {
		e164, err := normalizePhone(*in.PhoneNumber)
		if err != nil {
			return err
		}
		in.PhoneNumber = &e164
	}

	return nil
}

// normalizeEmail is applied to every email before it reaches the store, so
// registration and login agree on the lookup key.
func normalizeEmail(raw string) string {
	return strings.TrimSpace(raw)
}

func normalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", &ValidationError{Msg: "phone_number: must be a valid phone number."}
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
