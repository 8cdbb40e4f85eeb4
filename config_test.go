package lamini

import (
	"errors"
	"testing"
)

// clearKeySources blanks every API key source under the test's control and
// restores the package-level value afterwards.
func clearKeySources(t *testing.T) {
	t.Helper()
	saved := APIKey
	APIKey = ""
	t.Cleanup(func() { APIKey = saved })
	t.Setenv("LAMINI_API_KEY", "")
}

func TestResolveAPIKey(t *testing.T) {
	t.Run("explicit_wins", func(t *testing.T) {
		clearKeySources(t)
		APIKey = "package-key"
		t.Setenv("LAMINI_API_KEY", "env-key")

		key, err := ResolveAPIKey("explicit-key")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if key != "explicit-key" {
			t.Errorf("expected explicit key, got %q", key)
		}
	})

	t.Run("package_value_beats_environment", func(t *testing.T) {
		clearKeySources(t)
		APIKey = "package-key"
		t.Setenv("LAMINI_API_KEY", "env-key")

		key, err := ResolveAPIKey("")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if key != "package-key" {
			t.Errorf("expected package key, got %q", key)
		}
	})

	t.Run("environment_fallback", func(t *testing.T) {
		clearKeySources(t)
		t.Setenv("LAMINI_API_KEY", "env-key")

		key, err := ResolveAPIKey("")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if key != "env-key" {
			t.Errorf("expected environment key, got %q", key)
		}
	})

	t.Run("missing_key_is_authentication_error", func(t *testing.T) {
		clearKeySources(t)

		_, err := ResolveAPIKey("")
		var authErr *AuthenticationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthenticationError, got %v", err)
		}
	})
}

func TestResolveAPIURL(t *testing.T) {
	saved := APIURL
	APIURL = ""
	t.Cleanup(func() { APIURL = saved })
	t.Setenv("LAMINI_API_URL", "")

	t.Run("explicit_wins", func(t *testing.T) {
		if got := ResolveAPIURL("http://override"); got != "http://override" {
			t.Errorf("expected override, got %q", got)
		}
	})

	t.Run("defaults_to_production", func(t *testing.T) {
		if got := ResolveAPIURL(""); got != DefaultAPIURL {
			t.Errorf("expected %q, got %q", DefaultAPIURL, got)
		}
	})

	t.Run("environment_fallback", func(t *testing.T) {
		t.Setenv("LAMINI_API_URL", "http://env")
		if got := ResolveAPIURL(""); got != "http://env" {
			t.Errorf("expected environment url, got %q", got)
		}
	})
}

func TestEnvInt(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("LAMINI_MAX_WORKERS", "")
		t.Setenv("LAMINI_BATCH_SIZE", "")
		if got := MaxWorkers(); got != 12 {
			t.Errorf("expected 12 workers, got %d", got)
		}
		if got := DefaultBatchSize(); got != 4 {
			t.Errorf("expected batch size 4, got %d", got)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("LAMINI_MAX_WORKERS", "20")
		t.Setenv("LAMINI_BATCH_SIZE", "8")
		if got := MaxWorkers(); got != 20 {
			t.Errorf("expected 20 workers, got %d", got)
		}
		if got := DefaultBatchSize(); got != 8 {
			t.Errorf("expected batch size 8, got %d", got)
		}
	})

	t.Run("rejects_garbage_and_nonpositive", func(t *testing.T) {
		t.Setenv("LAMINI_BATCH_SIZE", "zero")
		if got := DefaultBatchSize(); got != 4 {
			t.Errorf("expected fallback 4 for garbage, got %d", got)
		}
		t.Setenv("LAMINI_BATCH_SIZE", "-1")
		if got := DefaultBatchSize(); got != 4 {
			t.Errorf("expected fallback 4 for nonpositive, got %d", got)
		}
	})
}
