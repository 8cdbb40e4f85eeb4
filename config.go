package lamini

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/spf13/viper"
)

// DefaultAPIURL is the production platform endpoint. Override it per client
// via ClientConfig.APIURL, the package-level APIURL, or LAMINI_API_URL.
const DefaultAPIURL = "https://api.lamini.ai"

// Package-level defaults. Setting these configures every client constructed
// afterwards without an explicit ClientConfig value.
var (
	APIKey string
	APIURL string
)

const missingKeyMessage = `LAMINI_API_KEY not found.
Please pass it explicitly, set the LAMINI_API_KEY environment variable,
set lamini.APIKey, or set it in ~/.lamini/configure.yaml.
Find your LAMINI_API_KEY at https://app.lamini.ai/account`

var (
	fileOnce sync.Once
	fileCfg  *viper.Viper
)

// fileConfig lazily reads the persisted configuration at
// ~/.lamini/configure.yaml. A missing or unreadable file leaves every key
// empty rather than failing; the file is optional.
func fileConfig() *viper.Viper {
	fileOnce.Do(func() {
		v := viper.New()
		if home, err := os.UserHomeDir(); err == nil {
			v.SetConfigFile(filepath.Join(home, ".lamini", "configure.yaml"))
			v.SetConfigType("yaml")
			_ = v.ReadInConfig()
		}
		fileCfg = v
	})
	return fileCfg
}

// ResolveAPIKey resolves the API key from, in priority order: the explicit
// argument, the package-level APIKey, the LAMINI_API_KEY environment
// variable, and the persisted configuration file. An AuthenticationError is
// returned when no source yields a key.
func ResolveAPIKey(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if APIKey != "" {
		return APIKey, nil
	}
	if v := os.Getenv("LAMINI_API_KEY"); v != "" {
		return v, nil
	}
	if v := fileConfig().GetString("production.key"); v != "" {
		return v, nil
	}
	return "", &AuthenticationError{Detail: missingKeyMessage}
}

// ResolveAPIURL resolves the platform base URL with the same priority order
// as ResolveAPIKey, falling back to DefaultAPIURL.
func ResolveAPIURL(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if APIURL != "" {
		return APIURL
	}
	if v := os.Getenv("LAMINI_API_URL"); v != "" {
		return v
	}
	if v := fileConfig().GetString("production.url"); v != "" {
		return v
	}
	return DefaultAPIURL
}

// MaxWorkers returns the configured worker ceiling for variable-capacity
// reservations, from LAMINI_MAX_WORKERS.
func MaxWorkers() int {
	return envInt("LAMINI_MAX_WORKERS", 12)
}

// DefaultBatchSize returns the configured pipeline batch size, from
// LAMINI_BATCH_SIZE.
func DefaultBatchSize() int {
	return envInt("LAMINI_BATCH_SIZE", 4)
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
