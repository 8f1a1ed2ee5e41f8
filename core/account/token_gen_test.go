package account

import (
	"testing"
	"time"
)

func TestMakeVerifyToken(t *testing.T) {
	tg := tokenGenerator{secret: []byte("secret"), timeout: 3 * 24 * time.Hour, now: time.Now}

	now := time.Now().UTC()
	acc := Account{
		ID:          "4b5d8a52-0d57-4a4f-8fd5-2b1c6b2d9a61",
		DisplayName: "T",
		Email:       "t@test.test",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLogin:   now,
	}
	_ = acc.SetPassword("pwd")

	validToken, err := tg.makeToken(acc)
	if err != nil {
		t.Fatalf("makeToken() error = %v", err)
	}

	// generate an expired token
	dayLate := tg.timeout + (24 * time.Hour)
	late := tg
	late.now = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := late.makeToken(acc)
	if err != nil {
		t.Fatalf("makeToken() error = %v", err)
	}

	// logging in again invalidates the token
	loggedIn := acc
	loggedIn.LastLogin = now.Add(time.Minute)

	tests := []struct {
		name    string
		acc     Account
		token   string
		wantErr error
	}{
		{name: "no token", acc: acc, wantErr: errInvalidToken},
		{name: "invalid parts len", acc: acc, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", acc: acc, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", acc: acc, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", acc: acc, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", acc: acc, token: expiredToken, wantErr: errTokenExpired},
		{name: "account changed", acc: loggedIn, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", acc: acc, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tg.verifyToken(tt.acc, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	acc := Account{ID: "abc-123"}
	got, err := decodeUID(encodeUID(acc))
	if err != nil || got != acc.ID {
		t.Errorf("decodeUID(encodeUID()) = %q, %v; want %q", got, err, acc.ID)
	}
	if _, err = decodeUID("%%%"); err == nil {
		t.Error("decodeUID() expected error on invalid input")
	}
}
