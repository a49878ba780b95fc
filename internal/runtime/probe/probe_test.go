package probe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapop/papapop-go/internal/runtime/storage"
	"github.com/papapop/papapop-go/pkg/config"
)

type fakeEnv struct {
	width    int
	height   int
	path     string
	hostname string
	pageURL  string
	shop     string
	framed   bool
}

func (e fakeEnv) ViewportWidth() int  { return e.width }
func (e fakeEnv) ViewportHeight() int { return e.height }
func (e fakeEnv) Path() string        { return e.path }
func (e fakeEnv) Hostname() string    { return e.hostname }
func (e fakeEnv) PageURL() string     { return e.pageURL }
func (e fakeEnv) ShopDomain() string  { return e.shop }
func (e fakeEnv) IsFramed() bool      { return e.framed }

func TestDeviceType(t *testing.T) {
	assert.Equal(t, DeviceMobile, DeviceType(320))
	assert.Equal(t, DeviceMobile, DeviceType(768))
	assert.Equal(t, DeviceTablet, DeviceType(769))
	assert.Equal(t, DeviceTablet, DeviceType(1024))
	assert.Equal(t, DeviceDesktop, DeviceType(1025))
	assert.Equal(t, DeviceDesktop, DeviceType(1920))
}

func TestPageType(t *testing.T) {
	cases := map[string]PageClass{
		"/":                         PageHomepage,
		"/products/blue-shirt":      PageProduct,
		"/collections/summer":       PageCollection,
		"/cart":                     PageCart,
		"/checkout":                 PageCheckout,
		"/pages/about":              PageOther,
		"/blogs/news/first-post":    PageOther,
		"/collections/all/products": PageCollection, // first match wins
	}
	for path, want := range cases {
		assert.Equal(t, want, PageType(path), "path %s", path)
	}
}

func TestIsHostAdminContext(t *testing.T) {
	storefront := fakeEnv{hostname: "shop.example.com", path: "/"}
	assert.False(t, IsHostAdminContext(storefront))

	assert.True(t, IsHostAdminContext(fakeEnv{hostname: "shop.example.com", path: "/", framed: true}))
	assert.True(t, IsHostAdminContext(fakeEnv{hostname: "admin.shopify.com", path: "/"}))
	assert.True(t, IsHostAdminContext(fakeEnv{hostname: "shop.example.com", path: "/admin/apps"}))
}

func TestSessionIDIsStable(t *testing.T) {
	store := storage.NewMemoryStore()

	first := SessionID(store)
	require.True(t, strings.HasPrefix(first, "pp_"))

	second := SessionID(store)
	assert.Equal(t, first, second)

	persisted, ok := store.Get(config.SessionStorageKey)
	require.True(t, ok)
	assert.Equal(t, first, persisted)
}

func TestSessionIDRespectsExistingValue(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(config.SessionStorageKey, "pp_existing"))

	assert.Equal(t, "pp_existing", SessionID(store))
}
