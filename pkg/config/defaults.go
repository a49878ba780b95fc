// Package config provides centralized default values for PapaPop
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database Configuration
	DBDriver                 string
	DBPath                   string
	LibSQLURL                string
	LibSQLAuthToken          string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Runtime Storage Keys
	APIBase            string
	SessionStorageKey  string
	OutboxStorageKey   string
	ViewCountKeyPrefix string

	// Outbox Configuration
	OutboxMaxRetries  int
	OutboxRetryDelays []time.Duration
	DeliveryUserAgent string

	// Trigger Configuration
	ScrollDebounce time.Duration

	// Popup Session Configuration
	SuccessAutoClose  time.Duration
	ErrorAutoDismiss  time.Duration
	MobileBreakpoint  int
	TabletBreakpoint  int
	AdminHostFragment string

	// Config Endpoint Caching
	ConfigCacheMaxAge       int
	ConfigCacheSharedMaxAge int

	// Sysop Configuration
	SysopPassword  string
	SysopJWTSecret string
	SysopTokenTTL  time.Duration
	ActivityTick   time.Duration

	// Email Configuration
	ResendAPIKey      string
	EmailFrom         string
	EmailFromName     string
	DiscountValidDays int
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database Configuration
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "papapop.db")
	LibSQLURL = getEnvString("LIBSQL_URL", "")
	LibSQLAuthToken = getEnvString("LIBSQL_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)

	// Runtime Storage Keys
	APIBase = getEnvString("PAPAPOP_API_BASE", "https://papapop.vercel.app")
	SessionStorageKey = getEnvString("SESSION_STORAGE_KEY", "papapop_session_id")
	OutboxStorageKey = getEnvString("OUTBOX_STORAGE_KEY", "papapop_data")
	ViewCountKeyPrefix = getEnvString("VIEW_COUNT_KEY_PREFIX", "papapop_views_")

	// Outbox Configuration
	OutboxMaxRetries = getEnvInt("OUTBOX_MAX_RETRIES", 4)
	OutboxRetryDelays = []time.Duration{
		getEnvDuration("OUTBOX_RETRY_DELAY_1", 1*time.Second),
		getEnvDuration("OUTBOX_RETRY_DELAY_2", 2*time.Second),
		getEnvDuration("OUTBOX_RETRY_DELAY_3", 4*time.Second),
		getEnvDuration("OUTBOX_RETRY_DELAY_4", 8*time.Second),
	}
	DeliveryUserAgent = getEnvString("DELIVERY_USER_AGENT", "papapop-go/1.0")

	// Trigger Configuration
	ScrollDebounce = getEnvDuration("SCROLL_DEBOUNCE", 100*time.Millisecond)

	// Popup Session Configuration
	SuccessAutoClose = getEnvDuration("SUCCESS_AUTO_CLOSE", 3*time.Second)
	ErrorAutoDismiss = getEnvDuration("ERROR_AUTO_DISMISS", 5*time.Second)
	MobileBreakpoint = getEnvInt("MOBILE_BREAKPOINT", 768)
	TabletBreakpoint = getEnvInt("TABLET_BREAKPOINT", 1024)
	AdminHostFragment = getEnvString("ADMIN_HOST_FRAGMENT", "shopify.com")

	// Config Endpoint Caching
	ConfigCacheMaxAge = getEnvInt("CONFIG_CACHE_MAX_AGE_SECONDS", 300)
	ConfigCacheSharedMaxAge = getEnvInt("CONFIG_CACHE_SHARED_MAX_AGE_SECONDS", 3600)

	// Sysop Configuration
	SysopPassword = getEnvString("SYSOP_PASSWORD", "")
	SysopJWTSecret = getEnvString("SYSOP_JWT_SECRET", "")
	SysopTokenTTL = getEnvDuration("SYSOP_TOKEN_TTL", 12*time.Hour)
	ActivityTick = getEnvDuration("ACTIVITY_TICK", 20*time.Second)

	// Email Configuration
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	EmailFrom = getEnvString("EMAIL_FROM", "noreply@papapop.app")
	EmailFromName = getEnvString("EMAIL_FROM_NAME", "PapaPop")
	DiscountValidDays = getEnvInt("DISCOUNT_VALID_DAYS", 30)
}
