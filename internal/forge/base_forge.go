package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
	"git.home.luguber.info/inful/updatesnap/internal/metrics"
	"git.home.luguber.info/inful/updatesnap/internal/retry"
)

// BaseForge provides the HTTP plumbing shared by the GitHub and GitLab
// clients: request construction, auth, status handling, retries and Link
// header pagination.
type BaseForge struct {
	name       string
	httpClient *http.Client
	policy     retry.Policy
	recorder   metrics.Recorder
	logger     *slog.Logger

	// authorize adds forge specific credentials to a request.
	authorize     func(*http.Request)
	customHeaders map[string]string
}

// NewBaseForge creates a BaseForge for the named forge.
func NewBaseForge(name string, opts Options) *BaseForge {
	opts = opts.withDefaults()
	return &BaseForge{
		name:          name,
		httpClient:    opts.HTTPClient,
		policy:        opts.Retry,
		recorder:      opts.Recorder,
		logger:        opts.Logger.With(logfields.Forge(name)),
		authorize:     func(*http.Request) {},
		customHeaders: make(map[string]string),
	}
}

// SetCustomHeader sets a header sent with every request.
func (b *BaseForge) SetCustomHeader(key, value string) {
	b.customHeaders[key] = value
}

// NewRequest creates a GET request for an absolute URL.
func (b *BaseForge) NewRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.ForgeError("failed to create request").
			WithCause(err).
			WithRetry(errors.RetryNever).
			WithContext("url", rawURL).
			Build()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "updatesnap/1.0")
	for key, value := range b.customHeaders {
		req.Header.Set(key, value)
	}
	b.authorize(req)
	return req, nil
}

// Get fetches rawURL and decodes the JSON body into result. Transient
// failures are retried according to the policy.
func (b *BaseForge) Get(ctx context.Context, rawURL string, result any) (http.Header, error) {
	var header http.Header
	err := b.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		header, err = b.getOnce(ctx, rawURL, result)
		return err
	}, func(attempt int, err error) {
		b.recorder.IncForgeRetry(b.name)
		b.logger.Warn("Retrying forge request",
			logfields.URL(rawURL),
			logfields.Attempt(attempt),
			logfields.Error(err))
	})
	return header, err
}

func (b *BaseForge) getOnce(ctx context.Context, rawURL string, result any) (http.Header, error) {
	req, err := b.NewRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		b.recorder.ObserveForgeRequest(b.name, elapsed, 0)
		return nil, errors.NetworkError("failed to execute forge request").
			WithCause(err).
			WithContext("url", rawURL).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	b.recorder.ObserveForgeRequest(b.name, elapsed, resp.StatusCode)
	b.logger.Debug("Forge request",
		logfields.URL(rawURL),
		logfields.Status(resp.StatusCode),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, rawURL)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return nil, errors.ForgeError("failed to decode response").
				WithCause(err).
				WithRetry(errors.RetryNever).
				WithContext("url", rawURL).
				Build()
		}
	}
	return resp.Header, nil
}

// GetRaw fetches rawURL and returns the body unparsed, with the same
// retry and status handling as Get.
func (b *BaseForge) GetRaw(ctx context.Context, rawURL string) ([]byte, error) {
	var data []byte
	err := b.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = b.getRawOnce(ctx, rawURL)
		return err
	}, func(attempt int, err error) {
		b.recorder.IncForgeRetry(b.name)
		b.logger.Warn("Retrying forge request",
			logfields.URL(rawURL),
			logfields.Attempt(attempt),
			logfields.Error(err))
	})
	return data, err
}

func (b *BaseForge) getRawOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := b.NewRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	req.Header.Del("Accept")

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		b.recorder.ObserveForgeRequest(b.name, elapsed, 0)
		return nil, errors.NetworkError("failed to execute forge request").
			WithCause(err).
			WithContext("url", rawURL).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()
	b.recorder.ObserveForgeRequest(b.name, elapsed, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, rawURL)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NetworkError("failed to read response body").
			WithCause(err).
			WithContext("url", rawURL).
			Build()
	}
	return data, nil
}

// statusError classifies a non-200 response. Server errors and rate limits
// are retryable, everything else is permanent.
func statusError(resp *http.Response, rawURL string) error {
	limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

	builder := errors.ForgeError(fmt.Sprintf("status code %d when asking for %s", resp.StatusCode, rawURL)).
		WithRetry(errors.RetryNever)
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		builder = errors.AuthError(fmt.Sprintf("status code %d when asking for %s", resp.StatusCode, rawURL))
	case resp.StatusCode == http.StatusNotFound:
		builder = errors.NotFoundError(fmt.Sprintf("status code %d when asking for %s", resp.StatusCode, rawURL))
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		builder = builder.RateLimit()
	case resp.StatusCode >= http.StatusInternalServerError:
		builder = builder.WithRetry(errors.RetryBackoff)
	}
	return builder.
		WithContext("status", resp.Status).
		WithContext("code", resp.StatusCode).
		WithContext("url", rawURL).
		WithContext("response", bodyStr).
		Build()
}

// GetPages follows rel="next" links starting at firstURL and accumulates
// the decoded pages. stop, when non-nil, ends the walk after the page for
// which it returns true.
func GetPages[T any](ctx context.Context, b *BaseForge, firstURL string, stop func([]T) bool) ([]T, error) {
	var all []T
	for next := firstURL; next != ""; {
		var page []T
		header, err := b.Get(ctx, next, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if stop != nil && stop(page) {
			break
		}
		next = nextLink(header)
	}
	return all, nil
}
