package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"string detail", `{"detail":"Box not found"}`, "Box not found"},
		{"list detail", `{"detail":[{"loc":["body","name"],"msg":"field required"}]}`, "field required"},
		{"error field", `{"error":"boom"}`, "boom"},
		{"message field", `{"message":"nope"}`, "nope"},
		{"not json", `<html>oops</html>`, "<html>oops</html>"},
		{"empty", ``, ""},
		{"empty object", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(400, []byte(tt.body))
			if err.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", err.Detail, tt.wantDetail)
			}
			if err.Body != tt.body {
				t.Errorf("Body = %q, want %q", err.Body, tt.body)
			}
		})
	}
}

func TestAPIErrorMessages(t *testing.T) {
	withDetail := NewAPIError(404, []byte(`{"detail":"Tag not found"}`))
	if got := withDetail.Error(); got != "API request failed with status 404: Tag not found" {
		t.Errorf("Error() = %q", got)
	}
	if got := withDetail.Message(); got != "Tag not found" {
		t.Errorf("Message() = %q", got)
	}

	bare := NewAPIError(500, nil)
	if got := bare.Error(); got != "API request failed with status 500" {
		t.Errorf("Error() = %q", got)
	}
	if got := bare.Message(); got != FallbackMessage {
		t.Errorf("Message() = %q, want fallback", got)
	}
}

func TestClassification(t *testing.T) {
	wrapped := fmt.Errorf("loading tab: %w", NewAPIError(404, nil))
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}
	if IsUnauthorized(wrapped) {
		t.Error("404 is not unauthorized")
	}
	if !IsUnauthorized(NewAPIError(403, nil)) {
		t.Error("403 is unauthorized")
	}
	if IsNotFound(stderrors.New("plain")) {
		t.Error("plain errors have no status")
	}

	v := Invalid("name", "Enter a %s", "name")
	if !IsValidation(v) {
		t.Error("Invalid should build a ValidationError")
	}
	if v.Error() != "Enter a name" {
		t.Errorf("Error() = %q", v.Error())
	}
}

func TestParseAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"detail", NewAPIError(400, []byte(`{"detail":"duplicate"}`)), "duplicate"},
		{"no detail", NewAPIError(500, nil), FallbackMessage},
		{"unauthorized", NewAPIError(401, nil), "Not authenticated. Run 'invctl setup login' first."},
		{"validation", Invalid("tag", "Select a tag"), "Select a tag"},
		{"transport", fmt.Errorf("failed to make request: %w", stderrors.New("dial tcp: refused")), "failed to make request: dial tcp: refused"},
		{"blank", stderrors.New("  "), FallbackMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseAPIError(tt.err); got != tt.want {
				t.Errorf("ParseAPIError() = %q, want %q", got, tt.want)
			}
		})
	}
}
