package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/yair/gigscout/pkg/domain"
)

const maxResponseBytes = 10 << 20

// getJSON performs a GET and decodes a 200 response into out. Every failure
// is returned as a *domain.ProviderError for provider.
func getJSON(ctx context.Context, client *http.Client, provider, endpoint string, params url.Values, headers map[string]string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, domain.NewProviderError(provider, domain.KindTransport, fmt.Sprintf("failed to create request: %v", err), err)
	}
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, domain.TransportFailure(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, domain.StatusFailure(provider, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return resp.StatusCode, domain.TransportFailure(provider, err)
		}
		return resp.StatusCode, domain.NewProviderError(provider, domain.KindParse, fmt.Sprintf("failed to decode response: %v", err), err)
	}

	return resp.StatusCode, nil
}

func rateLimited(provider string) error {
	return domain.NewProviderError(provider, domain.KindRateLimited, "daily quota exhausted", domain.ErrRateLimitExceeded)
}
