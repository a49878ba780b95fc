package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/runtime/probe"
)

type fixedCounts map[string]int

func (c fixedCounts) ViewCount(popupID string) int { return c[popupID] }

func TestLoadReturnsValidDefinitions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/popup-config", r.URL.Path)
		assert.Equal(t, "shop.example.com", r.URL.Query().Get("shop"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"configs": [
				{"id": "good", "popupType": "single_step", "triggerType": "delay", "triggerValue": 3, "heading": "Hi", "buttonText": "Go", "repeatInSession": false, "maxViewsPerSession": 1},
				{"id": "bad", "popupType": "single_step", "triggerType": "hover", "triggerValue": 0, "heading": "", "buttonText": "", "repeatInSession": false, "maxViewsPerSession": 1}
			]
		}`))
	}))
	defer server.Close()

	l := New(server.URL, server.Client(), logging.NewTestLogger())
	defs, err := l.Load(context.Background(), "shop.example.com")
	require.NoError(t, err)

	// The definition with the unknown trigger type is dropped, not fatal.
	require.Len(t, defs, 1)
	assert.Equal(t, "good", defs[0].ID)
}

func TestLoadUnsuccessfulResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success": false, "error": "boom"}`))
	}))
	defer server.Close()

	l := New(server.URL, server.Client(), logging.NewTestLogger())
	_, err := l.Load(context.Background(), "shop.example.com")
	assert.Error(t, err)
}

func TestLoadNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	l := New(server.URL, nil, logging.NewTestLogger())
	_, err := l.Load(context.Background(), "shop.example.com")
	assert.Error(t, err)
}

func TestLoadMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	l := New(server.URL, server.Client(), logging.NewTestLogger())
	_, err := l.Load(context.Background(), "shop.example.com")
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	defs := []popup.Definition{
		{ID: "all", MaxViewsPerSession: 1},
		{ID: "mobile-only", TargetDevices: []string{"mobile"}, MaxViewsPerSession: 1},
		{ID: "product-only", TargetPages: []string{"product"}, MaxViewsPerSession: 1},
		{ID: "seen", MaxViewsPerSession: 1},
		{ID: "repeats", RepeatInSession: true},
	}
	counts := fixedCounts{"seen": 1, "repeats": 7}

	got := Filter(defs, probe.DeviceDesktop, probe.PageHomepage, counts)

	ids := make([]string, len(got))
	for i, d := range got {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"all", "repeats"}, ids)
}

func TestFilterMatchingTargets(t *testing.T) {
	defs := []popup.Definition{
		{ID: "mobile-product", TargetDevices: []string{"mobile"}, TargetPages: []string{"product"}, MaxViewsPerSession: 1},
	}

	assert.Len(t, Filter(defs, probe.DeviceMobile, probe.PageProduct, fixedCounts{}), 1)
	assert.Empty(t, Filter(defs, probe.DeviceMobile, probe.PageHomepage, fixedCounts{}))
	assert.Empty(t, Filter(defs, probe.DeviceDesktop, probe.PageProduct, fixedCounts{}))
}
