package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/parleyhq/parley/internal/config"
)

func TestLoginIssuesToken(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	h := NewAuthHandler(testLogger(), config.AdminConfig{
		Username:     "admin",
		PasswordHash: string(hash),
	}, "test-secret", time.Hour)

	rec := postJSON(t, h.Login, `{"username":"admin","password":"s3cret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Errorf("response = %+v", resp)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(testLogger(), config.AdminConfig{
		Username: "admin",
		Password: "s3cret",
	}, "test-secret", time.Hour)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{"wrong username", `{"username":"root","password":"s3cret"}`, http.StatusUnauthorized},
		{"missing fields", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := postJSON(t, h.Login, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLoginRejectsEmptyConfiguredPassword(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(testLogger(), config.AdminConfig{Username: "admin"}, "test-secret", time.Hour)
	rec := postJSON(t, h.Login, `{"username":"admin","password":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	rec = postJSON(t, h.Login, `{"username":"admin","password":"anything"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
