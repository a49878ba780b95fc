// Package loader fetches the popup definitions applicable to a shop and
// filters them against device, page, and session-frequency rules before
// any trigger is armed.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/runtime/probe"
)

// configResponse is the popup-config wire format.
type configResponse struct {
	Success bool               `json:"success"`
	Configs []popup.Definition `json:"configs"`
}

// ViewCounter reports the per-browsing-session view count for a definition.
type ViewCounter interface {
	ViewCount(popupID string) int
}

// Loader performs the one configuration fetch per page load. There is no
// retry; configuration is fetched again only on the next page load.
type Loader struct {
	baseURL string
	client  *http.Client
	logger  *logging.ChanneledLogger
}

// New creates a loader against the given API base URL. A nil client uses a
// dedicated default client.
func New(baseURL string, client *http.Client, logger *logging.ChanneledLogger) *Loader {
	if client == nil {
		client = &http.Client{}
	}
	return &Loader{baseURL: baseURL, client: client, logger: logger}
}

// Load fetches the definitions for a shop. Network failure, a non-success
// flag, or an unreadable body all return an error; the caller proceeds with
// zero popups.
func (l *Loader) Load(ctx context.Context, shop string) ([]popup.Definition, error) {
	endpoint := fmt.Sprintf("%s/api/popup-config?shop=%s", l.baseURL, url.QueryEscape(shop))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build config request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("config fetch failed: %w", err)
	}
	defer resp.Body.Close()

	var body configResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode config response: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("config endpoint returned unsuccessful response")
	}

	valid := body.Configs[:0]
	for _, def := range body.Configs {
		if err := def.Validate(); err != nil {
			l.logger.Config().Warn("Skipping invalid definition", "error", err.Error())
			continue
		}
		valid = append(valid, def)
	}

	l.logger.Config().Info("Popup configurations loaded", "shop", shop, "count", len(valid))
	return valid, nil
}

// Filter drops every definition that fails the device, page, or
// session-repeat rule. Dropped definitions never arm.
func Filter(defs []popup.Definition, device probe.DeviceClass, page probe.PageClass, counts ViewCounter) []popup.Definition {
	var applicable []popup.Definition
	for _, def := range defs {
		if !def.MatchesDevice(string(device)) {
			continue
		}
		if !def.MatchesPage(string(page)) {
			continue
		}
		if !def.PassesSessionRule(counts.ViewCount(def.ID)) {
			continue
		}
		applicable = append(applicable, def)
	}
	return applicable
}
