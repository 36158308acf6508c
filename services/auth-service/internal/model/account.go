package model

import (
	"time"
)

// AccountStatus is the administrative status of an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
)

// VerificationState describes where an account is in the email verification lifecycle.
type VerificationState string

const (
	// VerificationStateUnverified is an unverified account with no outstanding code.
	VerificationStateUnverified VerificationState = "unverified"
	// VerificationStatePending is an unverified account holding an outstanding code.
	VerificationStatePending VerificationState = "pending_verification"
	// VerificationStateVerified is terminal.
	VerificationStateVerified VerificationState = "verified"
)

// Account represents a user identity in the authentication system.
type Account struct {
	ID           string        `bson:"_id"`
	FirstName    string        `bson:"first_name"`
	LastName     string        `bson:"last_name"`
	Email        string        `bson:"email"`
	Username     string        `bson:"username"`
	PhoneNumber  string        `bson:"phone_number,omitempty"`
	Gender       string        `bson:"gender"`
	Country      string        `bson:"country,omitempty"`
	Language     string        `bson:"language,omitempty"`
	ProfileImage string        `bson:"profile_image,omitempty"`
	Status       AccountStatus `bson:"status"`

	PasswordHash  string `bson:"password_hash"`
	IsVerified    bool   `bson:"is_verified"`
	EmailVerified bool   `bson:"email_verified"`
	PhoneVerified bool   `bson:"phone_verified"`

	ConfirmationCode        *string    `bson:"confirmation_code,omitempty"`
	VerificationTokenExpiry *time.Time `bson:"verification_token_expiry,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// VerificationState derives the verification lifecycle state from the stored fields.
func (a *Account) VerificationState() VerificationState {
	switch {
	case a.IsVerified:
		return VerificationStateVerified
	case a.ConfirmationCode != nil:
		return VerificationStatePending
	default:
		return VerificationStateUnverified
	}
}

// PublicAccount is the redacted view of an Account returned outside the service.
// It has no field for the password hash or the confirmation code.
type PublicAccount struct {
	ID            string        `json:"id"`
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Email         string        `json:"email"`
	Username      string        `json:"username"`
	PhoneNumber   string        `json:"phoneNumber,omitempty"`
	Gender        string        `json:"gender"`
	Country       string        `json:"country,omitempty"`
	Language      string        `json:"language,omitempty"`
	ProfileImage  string        `json:"profileImage,omitempty"`
	Status        AccountStatus `json:"status"`
	IsVerified    bool          `json:"isVerified"`
	EmailVerified bool          `json:"emailVerified"`
	PhoneVerified bool          `json:"phoneVerified"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Public projects a onto its redacted view. A nil account yields nil.
func (a *Account) Public() *PublicAccount {
	if a == nil {
		return nil
	}

	return &PublicAccount{
		ID:            a.ID,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Email:         a.Email,
		Username:      a.Username,
		PhoneNumber:   a.PhoneNumber,
		Gender:        a.Gender,
		Country:       a.Country,
		Language:      a.Language,
		ProfileImage:  a.ProfileImage,
		Status:        a.Status,
		IsVerified:    a.IsVerified,
		EmailVerified: a.EmailVerified,
		PhoneVerified: a.PhoneVerified,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// Clone returns a deep copy of a.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}

	c := *a
	if a.ConfirmationCode != nil {
		code := *a.ConfirmationCode
		c.ConfirmationCode = &code
	}
	if a.VerificationTokenExpiry != nil {
		expiry := *a.VerificationTokenExpiry
		c.VerificationTokenExpiry = &expiry
	}

	return &c
}
