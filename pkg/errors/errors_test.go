package errors

import (
	stderrors "errors"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := &Error{Type: ErrorTypeAuth, Message: "token rejected", Code: 401}
	want := "auth error (code 401): token rejected"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	err = New(ErrorTypeBadURL, "no host in url")
	want = "bad_url error: no host in url"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := Wrap(inner, ErrorTypeNetwork, "fetch failed")

	if !stderrors.Is(err, inner) {
		t.Error("Expected wrapped error to match errors.Is")
	}
	if !IsType(err, ErrorTypeNetwork) {
		t.Error("Expected IsType to report network")
	}
	if IsType(err, ErrorTypeQuota) {
		t.Error("Expected IsType to reject mismatched type")
	}
	if IsType(inner, ErrorTypeNetwork) {
		t.Error("Expected IsType to reject plain errors")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError}
	for _, et := range retryable {
		if !IsRetryable(et) {
			t.Errorf("Expected %s to be retryable", et)
		}
	}

	permanent := []ErrorType{ErrorTypeAuth, ErrorTypeParsing, ErrorTypeNotFound, ErrorTypeQuota, ErrorTypeBadURL}
	for _, et := range permanent {
		if IsRetryable(et) {
			t.Errorf("Expected %s to not be retryable", et)
		}
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	for _, code := range []int{0, 429, 500, 502, 503, 504, 599} {
		if !IsRetryableStatusCode(code) {
			t.Errorf("Expected status %d to be retryable", code)
		}
	}
	for _, code := range []int{200, 401, 403, 404, 422} {
		if IsRetryableStatusCode(code) {
			t.Errorf("Expected status %d to not be retryable", code)
		}
	}
}
