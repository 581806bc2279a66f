// Package launch issues the irreversible external action: submitting a
// token launch to the executor service. The trigger guarantees at-most-once
// execution per candidate key.
package launch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"launch-radar/internal/domain"
)

// ErrDuplicateLaunch is returned when the dedup guard already holds the
// candidate key.
var ErrDuplicateLaunch = errors.New("launch: key already launched or in flight")

// Executor performs the actual token launch. The call is treated as
// atomic and non-cancelable: once issued it either returns a result or an
// error, and there is no abort path. No timeout is enforced here.
type Executor interface {
	Launch(ctx context.Context, req *domain.LaunchRequest) (*domain.LaunchResult, error)
}

// HTTPExecutor submits launches to an external executor service over HTTP.
type HTTPExecutor struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPExecutor creates an HTTPExecutor. No client timeout is set; the
// external call resolves on its own schedule.
func NewHTTPExecutor(endpoint, apiKey string) *HTTPExecutor {
	return &HTTPExecutor{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{},
	}
}

// Compile-time interface check.
var _ Executor = (*HTTPExecutor)(nil)

// Launch submits the request and validates the returned mint address.
func (e *HTTPExecutor) Launch(ctx context.Context, req *domain.LaunchRequest) (*domain.LaunchResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal launch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build launch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("launch call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read launch response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("launch call returned status %d: %s", resp.StatusCode, string(data))
	}

	var result domain.LaunchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode launch response: %w", err)
	}
	if err := validateMint(result.Mint); err != nil {
		return nil, fmt.Errorf("executor returned invalid mint %q: %w", result.Mint, err)
	}
	if result.Signature == "" {
		return nil, errors.New("executor returned empty signature")
	}
	return &result, nil
}

// validateMint checks that a mint is a well-formed Solana account address:
// base58, 32 bytes, and a valid ed25519 point (executor mints are regular
// keypairs, which are always on the curve).
func validateMint(mint string) error {
	raw, err := base58.Decode(mint)
	if err != nil {
		return fmt.Errorf("decode base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("not an ed25519 point: %w", err)
	}
	return nil
}
