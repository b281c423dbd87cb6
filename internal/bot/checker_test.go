package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/imei-service/internal/api/dto"
	"github.com/spec-kit/imei-service/internal/auth"
	"github.com/spec-kit/imei-service/internal/domain"
	"github.com/spec-kit/imei-service/internal/service"
)

func TestBackendCheckerSendsTokenAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/check-imei" || r.URL.Query().Get("imei") != "357369092971157" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "valid",
			"imei":    "357369092971157",
			"message": "IMEI is valid",
			"user":    "user",
			"details": map[string]any{"id": "abc"},
		})
	}))
	defer server.Close()

	resp, err := NewBackendChecker(server.URL+"/", time.Second).Check(context.Background(), "357369092971157", "tok")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.Status != dto.StatusValid || resp.Details["id"] != "abc" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestBackendCheckerErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"detail body", http.StatusForbidden, `{"detail":"Not authenticated"}`, "Not authenticated"},
		{"non json", http.StatusBadGateway, `<html>bad gateway</html>`, "decode check response"},
		{"empty object", http.StatusInternalServerError, `{}`, "unexpected check response status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewBackendChecker(server.URL, time.Second).Check(context.Background(), "1", "tok")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBackendCheckerPassesStatusBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"invalid","message":"Token has expired"}`))
	}))
	defer server.Close()

	resp, err := NewBackendChecker(server.URL, time.Second).Check(context.Background(), "1", "tok")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.Status != dto.StatusInvalid || resp.Message != "Token has expired" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

type lookupFunc func(ctx context.Context, imei domain.IMEI) (domain.LookupDetails, error)

func (f lookupFunc) Check(ctx context.Context, imei domain.IMEI) (domain.LookupDetails, error) {
	return f(ctx, imei)
}

func TestLocalChecker(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	token, _, err := tokens.GenerateToken("user")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	var upstreamErr error
	checks := service.NewCheckService(service.CheckDependencies{
		Lookup: lookupFunc(func(_ context.Context, imei domain.IMEI) (domain.LookupDetails, error) {
			if upstreamErr != nil {
				return nil, upstreamErr
			}
			return domain.LookupDetails{"deviceId": imei.String()}, nil
		}),
	})
	checker := NewLocalChecker(tokens, checks)
	ctx := context.Background()

	resp, err := checker.Check(ctx, "357369092971157", token)
	if err != nil || resp.Status != dto.StatusValid || resp.User != "user" {
		t.Fatalf("unexpected valid response %+v (%v)", resp, err)
	}

	resp, _ = checker.Check(ctx, "357369092971158", token)
	if resp.Status != dto.StatusInvalid || resp.Message == "" {
		t.Fatalf("unexpected invalid response %+v", resp)
	}

	resp, _ = checker.Check(ctx, "357369092971157", "garbage")
	if resp.Status != dto.StatusInvalid || resp.Message != "Invalid token" {
		t.Fatalf("unexpected token response %+v", resp)
	}

	upstreamErr = errors.New("connection refused")
	resp, _ = checker.Check(ctx, "357369092971157", token)
	if resp.Message != "Error fetching IMEI details: connection refused" {
		t.Fatalf("unexpected upstream response %+v", resp)
	}
}
