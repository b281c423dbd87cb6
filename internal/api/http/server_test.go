package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/imei-service/internal/api/http/handlers"
	"github.com/spec-kit/imei-service/internal/auth"
	"github.com/spec-kit/imei-service/internal/lookup"
	"github.com/spec-kit/imei-service/internal/observability"
	"github.com/spec-kit/imei-service/internal/service"
)

const testSecret = "test-secret"

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, upstreamURL string) (*fiber.App, *auth.TokenManager) {
	t.Helper()

	tokens := auth.NewTokenManager(testSecret, time.Hour)
	checks := service.NewCheckService(service.CheckDependencies{
		Lookup: lookup.NewClient(lookup.Config{BaseURL: upstreamURL, APIKey: "key", Timeout: 2 * time.Second}),
	})
	metrics := observability.NewMetrics()

	app := NewServer(ServerConfig{
		AppName:        "test",
		RequestTimeout: 5 * time.Second,
		Metrics:        metrics,
		Routes: RouteConfig{
			Health: handlers.NewHealthHandler("test", "dev", map[string]handlers.Pinger{
				"store": pingFunc(func(context.Context) error { return nil }),
			}),
			IMEI:    handlers.NewIMEIHandler(checks, tokens),
			Metrics: metrics.Handler(),
		},
	})
	return app, tokens
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return newUpstreamWithBody(t, `{"id":"chk-9","properties":{"deviceName":"Pixel 8"}}`)
}

func newUpstreamWithBody(t *testing.T, payload string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doCheck(t *testing.T, app *fiber.App, query url.Values, authorization string) (int, map[string]any) {
	t.Helper()

	target := "/api/check-imei"
	if query != nil {
		target += "?" + query.Encode()
	}
	req := httptest.NewRequest(nethttp.MethodGet, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, body
}

func bearer(t *testing.T, tokens *auth.TokenManager) string {
	t.Helper()

	token, _, err := tokens.GenerateToken("user")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func TestCheckIMEIRequiresCredentials(t *testing.T) {
	t.Parallel()

	app, _ := newTestServer(t, newUpstream(t).URL)
	status, body := doCheck(t, app, url.Values{"imei": {"490154203237518"}}, "")
	if status != nethttp.StatusForbidden || body["detail"] != "Not authenticated" {
		t.Fatalf("expected 403 Not authenticated, got %d %v", status, body)
	}
}

func TestCheckIMEIGarbageToken(t *testing.T) {
	t.Parallel()

	app, _ := newTestServer(t, newUpstream(t).URL)
	status, body := doCheck(t, app, url.Values{"imei": {"490154203237518"}}, "Bearer garbage")
	if status != nethttp.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if body["status"] != "invalid" || body["message"] != "Invalid token" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCheckIMEIExpiredToken(t *testing.T) {
	t.Parallel()

	app, tokens := newTestServer(t, newUpstream(t).URL)
	token, _, err := tokens.GenerateTokenWithTTL("user", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	status, body := doCheck(t, app, url.Values{"imei": {"490154203237518"}}, "Bearer "+token)
	if status != nethttp.StatusUnauthorized || body["message"] != "Token has expired" {
		t.Fatalf("expected 401 Token has expired, got %d %v", status, body)
	}
}

func TestCheckIMEIMissingParameter(t *testing.T) {
	t.Parallel()

	app, tokens := newTestServer(t, newUpstream(t).URL)
	status, body := doCheck(t, app, nil, bearer(t, tokens))
	if status != nethttp.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %v", status, body)
	}
	detail, ok := body["detail"].([]any)
	if !ok || len(detail) != 1 {
		t.Fatalf("unexpected detail %v", body["detail"])
	}
}

func TestCheckIMEIInvalidInputIsReportedWithOK(t *testing.T) {
	t.Parallel()

	app, tokens := newTestServer(t, newUpstream(t).URL)
	cases := map[string]string{
		"":                "IMEI cannot be empty",
		"1234":            "IMEI must be exactly 15 digits long, got 4 digits",
		"49015420323751A": "IMEI must contain only digits",
		"490154203237519": "Invalid IMEI checksum",
	}
	for input, message := range cases {
		status, body := doCheck(t, app, url.Values{"imei": {input}}, bearer(t, tokens))
		if status != nethttp.StatusOK {
			t.Fatalf("%q: expected 200, got %d", input, status)
		}
		if body["status"] != "invalid" || body["message"] != message {
			t.Fatalf("%q: unexpected body %v", input, body)
		}
	}
}

func TestCheckIMEIValid(t *testing.T) {
	t.Parallel()

	app, tokens := newTestServer(t, newUpstream(t).URL)
	status, body := doCheck(t, app, url.Values{"imei": {"490154203237518"}}, bearer(t, tokens))
	if status != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	if body["status"] != "valid" || body["imei"] != "490154203237518" || body["message"] != "IMEI is valid" || body["user"] != "user" {
		t.Fatalf("unexpected body %v", body)
	}
	details, ok := body["details"].(map[string]any)
	if !ok || details["id"] != "chk-9" {
		t.Fatalf("unexpected details %v", body["details"])
	}
}

func TestCheckIMEIEmptyInputKeepsIMEIKey(t *testing.T) {
	t.Parallel()

	app, tokens := newTestServer(t, newUpstream(t).URL)
	status, body := doCheck(t, app, url.Values{"imei": {""}}, bearer(t, tokens))
	if status != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	imei, ok := body["imei"]
	if !ok || imei != "" {
		t.Fatalf("expected an empty imei key, got %v", body)
	}
}

func TestCheckIMEIValidKeepsUserAndDetailsKeys(t *testing.T) {
	t.Parallel()

	app, tokens := newTestServer(t, newUpstreamWithBody(t, `{}`).URL)
	token, _, err := tokens.GenerateToken("")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	status, body := doCheck(t, app, url.Values{"imei": {"490154203237518"}}, "Bearer "+token)
	if status != nethttp.StatusOK || body["status"] != "valid" {
		t.Fatalf("expected a valid 200 response, got %d %v", status, body)
	}
	user, ok := body["user"]
	if !ok || user != nil {
		t.Fatalf("expected user to be null, got %v", body)
	}
	details, ok := body["details"].(map[string]any)
	if !ok || len(details) != 0 {
		t.Fatalf("expected empty details object, got %v", body)
	}
}

func TestCheckIMEIUpstreamUnreachable(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(nethttp.NotFoundHandler())
	upstreamURL := upstream.URL
	upstream.Close()

	app, tokens := newTestServer(t, upstreamURL)
	status, body := doCheck(t, app, url.Values{"imei": {"490154203237518"}}, bearer(t, tokens))
	if status != nethttp.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d %v", status, body)
	}
	message, _ := body["message"].(string)
	if body["status"] != "invalid" || !strings.HasPrefix(message, "Error fetching IMEI details: ") {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	t.Parallel()

	app, _ := newTestServer(t, newUpstream(t).URL)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, path, nil), -1)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if resp.StatusCode != nethttp.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/nope", nil), -1)
	if err != nil {
		t.Fatalf("not found: %v", err)
	}
	if resp.StatusCode != nethttp.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestReadyReportsFailingDependency(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	h := handlers.NewHealthHandler("test", "dev", map[string]handlers.Pinger{
		"store": pingFunc(func(context.Context) error { return errors.New("disk gone") }),
	})
	app.Get("/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/ready", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != nethttp.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
