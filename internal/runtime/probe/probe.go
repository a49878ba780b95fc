// Package probe derives session identity, device class, page class, and
// host-context facts from the embedding environment. Everything here is a
// pure function over the Environment except SessionID, which creates and
// persists the identifier on first use.
package probe

import (
	"strings"

	"github.com/papapop/papapop-go/internal/infrastructure/security"
	"github.com/papapop/papapop-go/internal/runtime/storage"
	"github.com/papapop/papapop-go/pkg/config"
)

// DeviceClass is a coarse viewport classification.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceDesktop DeviceClass = "desktop"
)

// PageClass is a coarse page classification derived from the URL path.
type PageClass string

const (
	PageHomepage   PageClass = "homepage"
	PageProduct    PageClass = "product"
	PageCollection PageClass = "collection"
	PageCart       PageClass = "cart"
	PageCheckout   PageClass = "checkout"
	PageOther      PageClass = "other"
)

// Environment exposes the host-page facts the probe classifies. Host
// adapters implement this over whatever page context they embed in.
type Environment interface {
	ViewportWidth() int
	ViewportHeight() int
	Path() string
	Hostname() string
	PageURL() string
	ShopDomain() string
	IsFramed() bool
}

// DeviceType classifies a viewport width. It is evaluated at call time, not
// cached, since the viewport may change between calls.
func DeviceType(viewportWidth int) DeviceClass {
	switch {
	case viewportWidth <= config.MobileBreakpoint:
		return DeviceMobile
	case viewportWidth <= config.TabletBreakpoint:
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

// PageType classifies a URL path by substring matching, first match wins.
func PageType(path string) PageClass {
	switch {
	case path == "/":
		return PageHomepage
	case strings.Contains(path, "/products/"):
		return PageProduct
	case strings.Contains(path, "/collections/"):
		return PageCollection
	case strings.Contains(path, "/cart"):
		return PageCart
	case strings.Contains(path, "/checkout"):
		return PageCheckout
	default:
		return PageOther
	}
}

// IsHostAdminContext reports whether the runtime is loaded inside the
// platform admin rather than a storefront: framed, on the platform admin
// domain, or on an admin path. Any one signal suffices; when true the
// runtime must not initialize.
func IsHostAdminContext(env Environment) bool {
	if env.IsFramed() {
		return true
	}
	if strings.Contains(env.Hostname(), config.AdminHostFragment) {
		return true
	}
	if strings.Contains(env.Path(), "/admin") {
		return true
	}
	return false
}

// SessionID returns the durable per-browser session identifier, generating
// and storing one on first call. The identifier is shared across popups and
// page loads; it is not tied to any definition.
func SessionID(store storage.Store) string {
	if id, ok := store.Get(config.SessionStorageKey); ok && id != "" {
		return id
	}
	id := security.GenerateSessionID()
	// A failed write still yields a usable id for this page load; the next
	// load will mint a fresh one.
	_ = store.Set(config.SessionStorageKey, id)
	return id
}
