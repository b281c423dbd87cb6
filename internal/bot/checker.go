package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/imei-service/internal/api/dto"
	"github.com/spec-kit/imei-service/internal/auth"
	"github.com/spec-kit/imei-service/internal/service"
	apperrors "github.com/spec-kit/imei-service/pkg/util"
)

// Checker runs an IMEI check on behalf of the bot using a freshly minted token.
type Checker interface {
	Check(ctx context.Context, imei, token string) (*dto.CheckResponse, error)
}

// BackendChecker calls the HTTP API of a separately deployed service.
type BackendChecker struct {
	baseURL    string
	httpClient *http.Client
}

func NewBackendChecker(baseURL string, timeout time.Duration) *BackendChecker {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BackendChecker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *BackendChecker) Check(ctx context.Context, imei, token string) (*dto.CheckResponse, error) {
	endpoint := c.baseURL + "/api/check-imei?" + url.Values{"imei": {imei}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build check request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read check response: %w", err)
	}

	var out dto.CheckResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode check response (status %d): %w", resp.StatusCode, err)
	}
	if out.Status == "" {
		if out.Detail != nil {
			return nil, fmt.Errorf("%v", out.Detail)
		}
		return nil, fmt.Errorf("unexpected check response status %d", resp.StatusCode)
	}
	return &out, nil
}

// TokenVerifier resolves a bearer credential to its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// LocalChecker runs checks in-process when the bot and API share a binary. Its
// responses carry the same statuses and messages the HTTP API would return.
type LocalChecker struct {
	tokens TokenVerifier
	checks *service.CheckService
}

func NewLocalChecker(tokens TokenVerifier, checks *service.CheckService) *LocalChecker {
	return &LocalChecker{tokens: tokens, checks: checks}
}

func (c *LocalChecker) Check(ctx context.Context, imei, token string) (*dto.CheckResponse, error) {
	subject, err := c.tokens.Verify(token)
	if err != nil {
		rejection := apperrors.NewTokenInvalid(err)
		if errors.Is(err, auth.ErrTokenExpired) {
			rejection = apperrors.NewTokenExpired(err)
		}
		return rejected(rejection), nil
	}

	result, err := c.checks.Check(ctx, subject, imei)
	if err != nil {
		return rejected(apperrors.NewUpstreamUnavailable(err)), nil
	}
	if !result.Valid {
		return &dto.CheckResponse{Status: dto.StatusInvalid, IMEI: result.IMEI, Message: result.Message}, nil
	}
	return &dto.CheckResponse{
		Status:  dto.StatusValid,
		IMEI:    result.IMEI,
		Message: result.Message,
		User:    subject,
		Details: result.Details,
	}, nil
}

func rejected(err error) *dto.CheckResponse {
	return &dto.CheckResponse{Status: dto.StatusInvalid, Message: apperrors.ToDomainError(err).Message}
}
