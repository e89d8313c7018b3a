package domain

import "testing"

func validUser() *User {
	return &User{
		ID:           "u1",
		Username:     "john.doe123",
		Email:        "john@example.com",
		NationalID:   "V-00123",
		PasswordHash: "$2a$10$hash",
		FirstName:    "John",
		LastName:     "Doe",
		IsActive:     true,
	}
}

func TestUser_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(u *User)
		ok     bool
	}{
		{"valid", func(*User) {}, true},
		{"missing id", func(u *User) { u.ID = "" }, false},
		{"missing username", func(u *User) { u.Username = "" }, false},
		{"missing email", func(u *User) { u.Email = "" }, false},
		{"missing national id", func(u *User) { u.NationalID = "" }, false},
		{"missing hash", func(u *User) { u.PasswordHash = "" }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u := validUser()
			tc.mutate(u)
			err := u.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("Validate should fail")
			}
		})
	}
}

func TestUser_SummaryOmitsSecrets(t *testing.T) {
	phone := "+15551234567"
	u := validUser()
	u.PhoneNumber = &phone
	s := u.Summary()
	if s.ID != "u1" || s.Username != "john.doe123" || s.Email != "john@example.com" {
		t.Errorf("Summary = %+v", s)
	}
	if s.PhoneNumber != phone {
		t.Errorf("PhoneNumber = %q, want %q", s.PhoneNumber, phone)
	}
}
