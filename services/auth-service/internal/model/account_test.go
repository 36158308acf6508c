package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_VerificationState(t *testing.T) {
	code := "code"

	tests := []struct {
		name    string
		account Account
		want    VerificationState
	}{
		{name: "fresh signup", account: Account{}, want: VerificationStateUnverified},
		{name: "code outstanding", account: Account{ConfirmationCode: &code}, want: VerificationStatePending},
		{name: "verified", account: Account{IsVerified: true, EmailVerified: true}, want: VerificationStateVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.account.VerificationState())
		})
	}
}

func TestAccount_PublicOmitsSecrets(t *testing.T) {
	code := "outstanding-code"
	expiry := time.Now().Add(10 * time.Minute)
	a := &Account{
		ID:                      "acc-1",
		Email:                   "a@x.com",
		Username:                "ada",
		PasswordHash:            "$argon2id$secret-digest",
		ConfirmationCode:        &code,
		VerificationTokenExpiry: &expiry,
	}

	raw, err := json.Marshal(a.Public())
	require.NoError(t, err)

	body := string(raw)
	assert.NotContains(t, body, "secret-digest")
	assert.NotContains(t, body, "outstanding-code")
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "confirmation")
	assert.Contains(t, body, `"email":"a@x.com"`)
}

func TestAccount_PublicNil(t *testing.T) {
	var a *Account
	assert.Nil(t, a.Public())
}

func TestAccount_CloneIsDeep(t *testing.T) {
	code := "c1"
	a := &Account{ID: "acc-1", ConfirmationCode: &code}

	c := a.Clone()
	*c.ConfirmationCode = "c2"

	assert.Equal(t, "c1", *a.ConfirmationCode)
}
