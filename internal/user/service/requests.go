package service

import (
	"strings"

	"unipos-auth/internal/apperr"
)

// UpdateRequest is a partial profile update. Nil fields are left unchanged.
type UpdateRequest struct {
	IDUser      string  `json:"id_user"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	Email       *string `json:"email,omitempty"`
	NationalID  *string `json:"nationalId,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

func (r *UpdateRequest) Validate() error {
	if err := apperr.Required("id_user", r.IDUser); err != nil {
		return err
	}
	if r.FirstName != nil {
		if err := apperr.Required("firstName", *r.FirstName); err != nil {
			return err
		}
	}
	if r.LastName != nil {
		if err := apperr.Required("lastName", *r.LastName); err != nil {
			return err
		}
	}
	if r.Email != nil {
		if err := apperr.Email("email", *r.Email); err != nil {
			return err
		}
	}
	if r.NationalID != nil {
		if err := apperr.Required("nationalId", *r.NationalID); err != nil {
			return err
		}
	}
	if r.PhoneNumber != nil && strings.TrimSpace(*r.PhoneNumber) != "" {
		return apperr.Phone("phoneNumber", *r.PhoneNumber)
	}
	return nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (r *ChangePasswordRequest) Validate() error {
	return apperr.First(
		apperr.Password("oldPassword", r.OldPassword),
		apperr.Password("newPassword", r.NewPassword),
	)
}

type DeleteRequest struct {
	IDUser string `json:"id_user"`
}

func (r *DeleteRequest) Validate() error {
	return apperr.Required("id_user", r.IDUser)
}
