package lamini

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFromStatus(t *testing.T) {
	t.Run("dedicated_types", func(t *testing.T) {
		var modelErr *ModelNotFoundError
		if !errors.As(errorFromStatus(594, "no such model"), &modelErr) {
			t.Error("594 should map to ModelNotFoundError")
		}
		var rateErr *RateLimitError
		if !errors.As(errorFromStatus(429, ""), &rateErr) {
			t.Error("429 should map to RateLimitError")
		}
		var authErr *AuthenticationError
		if !errors.As(errorFromStatus(401, ""), &authErr) {
			t.Error("401 should map to AuthenticationError")
		}
		var userErr *UserError
		if !errors.As(errorFromStatus(400, ""), &userErr) {
			t.Error("400 should map to UserError")
		}
		var contentErr *UnprocessableContentError
		if !errors.As(errorFromStatus(422, ""), &contentErr) {
			t.Error("422 should map to UnprocessableContentError")
		}
		var unavailErr *UnavailableResourceError
		if !errors.As(errorFromStatus(503, ""), &unavailErr) {
			t.Error("503 should map to UnavailableResourceError")
		}
	})

	t.Run("unmapped_status_is_generic", func(t *testing.T) {
		var apiErr *APIError
		if !errors.As(errorFromStatus(500, "internal"), &apiErr) {
			t.Fatal("unmapped status should map to APIError")
		}
		if apiErr.StatusCode != 500 {
			t.Errorf("expected status 500, got %d", apiErr.StatusCode)
		}
		if !strings.Contains(apiErr.Error(), "internal") {
			t.Errorf("expected detail in message, got %q", apiErr.Error())
		}
	})

	t.Run("detail_is_preserved", func(t *testing.T) {
		err := errorFromStatus(594, "no model named llama-99")
		if !strings.Contains(err.Error(), "no model named llama-99") {
			t.Errorf("expected server detail in message, got %q", err.Error())
		}
	})

	t.Run("empty_detail_gets_a_default", func(t *testing.T) {
		err := errorFromStatus(429, "")
		if !strings.Contains(err.Error(), "RateLimitError") {
			t.Errorf("expected default detail, got %q", err.Error())
		}
	})
}
