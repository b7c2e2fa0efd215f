package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeListingInactive, status: http.StatusConflict, publicMsg: "listing is not active", detailsOK: true},
		{code: CodeInvalidTransition, status: http.StatusUnprocessableEntity, publicMsg: "status transition disallowed", detailsOK: true},
		{code: CodeVerificationFailed, status: http.StatusBadRequest, publicMsg: "verification failed"},
		{code: CodeAmountMismatch, status: http.StatusConflict, publicMsg: "amount mismatch", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected message %q got %q", tt.code, meta.PublicMessage, tt.publicMsg)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s retryable mismatch", tt.code)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s details mismatch", tt.code)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stdErrors.New("root cause")
	err := Wrap(CodeDependency, cause, "load order")

	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable")
	}

	typed := As(err)
	if typed == nil || typed.Message() != "load order" {
		t.Fatalf("unexpected typed error: %+v", typed)
	}
}

func TestHasCode(t *testing.T) {
	err := New(CodeInsufficientStock, "only 1 left")
	if !HasCode(err, CodeInsufficientStock) {
		t.Fatal("expected code match")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatal("unexpected code match")
	}
	if HasCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatal("plain errors carry no code")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]string{"items": "required"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["items"] != "required" {
		t.Fatalf("unexpected details: %#v", err.Details())
	}
}
