package service

import (
	"strings"

	"unipos-auth/internal/apperr"
)

// LoginRequest is the body of POST /auth/login. IP and UserAgent are filled from the request.
type LoginRequest struct {
	Identifier string  `json:"identifier"`
	Password   string  `json:"password"`
	DeviceID   *string `json:"deviceId,omitempty"`
	CompanyID  *int64  `json:"companyId,omitempty"`
	IP         string  `json:"-"`
	UserAgent  string  `json:"-"`
}

func (r *LoginRequest) Validate() error {
	if r.DeviceID != nil && len(*r.DeviceID) > 200 {
		return apperr.Invalid("deviceId", "must be at most 200 characters")
	}
	return apperr.First(
		apperr.Required("identifier", r.Identifier),
		apperr.Password("password", r.Password),
	)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *RefreshRequest) Validate() error {
	return apperr.Required("refreshToken", r.RefreshToken)
}

// RegisterRequest is the body of POST /auth/register. The username is derived, never supplied.
type RegisterRequest struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	NationalID  string  `json:"nationalId"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

func (r *RegisterRequest) Validate() error {
	err := apperr.First(
		apperr.Required("firstName", r.FirstName),
		apperr.Required("lastName", r.LastName),
		apperr.Email("email", r.Email),
		apperr.Required("nationalId", r.NationalID),
		apperr.Password("password", r.Password),
	)
	if err != nil {
		return err
	}
	if r.PhoneNumber != nil && strings.TrimSpace(*r.PhoneNumber) != "" {
		return apperr.Phone("phoneNumber", *r.PhoneNumber)
	}
	return nil
}

type AvailabilityRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	NationalID string `json:"nationalId"`
}

func (r *AvailabilityRequest) Validate() error {
	return apperr.First(
		apperr.Required("username", r.Username),
		apperr.Email("email", r.Email),
		apperr.Required("nationalId", r.NationalID),
	)
}

func normalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
