// internal/backends/brightdata.go
package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/retry"
	"github.com/valpere/SocialScrapexter/internal/utils"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

const (
	brightDataEndpoint = "https://api.brightdata.com/request"
	brightDataZone     = "web_unlocker"
)

// brightDataFetcher proxies fetches through the managed anti-block API.
// The service handles blocks and captchas upstream; we just submit the
// target and read back rendered markup.
type brightDataFetcher struct {
	settings *config.Settings
	client   *http.Client
	courtesy *rate.Limiter
	logger   utils.Logger
}

// NewBrightData creates the priority-1 backend. It assumes the credential
// is present; availability gating happens in the detector.
func NewBrightData(settings *config.Settings, logger utils.Logger) Backend {
	return newAdapter(&brightDataFetcher{
		settings: settings,
		client:   &http.Client{Timeout: settings.Timeout},
		courtesy: rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), 1),
		logger:   logger,
	}, logger)
}

func (f *brightDataFetcher) name() types.BackendName { return types.BackendBrightData }

func (f *brightDataFetcher) close() error { return nil }

func (f *brightDataFetcher) fetch(ctx context.Context, target string) (string, error) {
	if err := f.courtesy.Wait(ctx); err != nil {
		return "", err
	}

	target = simplifyIfConfigured(f.settings, target)

	body, err := json.Marshal(map[string]string{
		"zone":   brightDataZone,
		"url":    target,
		"format": "raw",
	})
	if err != nil {
		return "", utils.WrapError(err, utils.ErrCodeInternal, "failed to encode request")
	}

	opts := retry.Options{
		MaxRetries: f.settings.MaxRetries,
		BaseDelay:  f.settings.MinDelay,
		MaxDelay:   f.settings.MaxDelay,
	}

	return retry.Do(ctx, opts, func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, brightDataEndpoint, bytes.NewReader(body))
		if err != nil {
			return "", utils.WrapError(err, utils.ErrCodeInternal, "failed to build request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+f.settings.BrightDataAPIKey)

		resp, err := f.client.Do(req)
		if err != nil {
			return "", utils.WrapError(err, utils.ErrCodeTransport, "request failed").
				WithContext("url", target)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return "", utils.WrapError(err, utils.ErrCodeTransport, "failed to read response")
		}

		if resp.StatusCode != http.StatusOK {
			code := utils.ErrCodeTransport
			if resp.StatusCode == http.StatusTooManyRequests {
				code = utils.ErrCodeRateLimited
			}
			return "", utils.NewError(code, fmt.Sprintf("upstream returned %d", resp.StatusCode)).
				WithContext("url", target)
		}
		return string(payload), nil
	})
}
