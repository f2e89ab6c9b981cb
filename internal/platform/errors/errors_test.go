package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeCharacterNotFound, "character abc not found")
	target := New(CodeCharacterNotFound, "different message")

	if !stderrors.Is(err, target) {
		t.Fatal("expected errors with the same code to match")
	}

	other := New(CodeUpstreamTimeout, "timeout")
	if stderrors.Is(err, other) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(CodeUpstreamUnavailable, "game-state unreachable", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestCodeOf(t *testing.T) {
	err := New(CodeModelTimeout, "model timed out")
	wrapped := fmt.Errorf("invoke model: %w", err)

	if got := CodeOf(wrapped); got != CodeModelTimeout {
		t.Fatalf("expected CodeModelTimeout, got %s", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected CodeUnknown for plain error, got %s", got)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("expected CodeUnknown for nil, got %s", got)
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeTurnInvalidRequest, codes.InvalidArgument},
		{CodeCharacterNotFound, codes.NotFound},
		{CodeTurnRateLimited, codes.ResourceExhausted},
		{CodeUpstreamTimeout, codes.DeadlineExceeded},
		{CodeModelTimeout, codes.DeadlineExceeded},
		{CodeUpstreamUnavailable, codes.Unavailable},
		{CodeModelConfiguration, codes.FailedPrecondition},
		{CodeStorage, codes.Internal},
		{Code("BOGUS"), codes.Unknown},
	}
	for _, tt := range tests {
		if got := tt.code.GRPCCode(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.code, tt.want, got)
		}
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeTurnInvalidRequest, http.StatusBadRequest},
		{CodeCharacterNotFound, http.StatusNotFound},
		{CodeTurnRateLimited, http.StatusTooManyRequests},
		{CodeModelTimeout, http.StatusGatewayTimeout},
		{CodeUpstreamUnavailable, http.StatusBadGateway},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.code, tt.want, got)
		}
	}
}

func TestToGRPCStatus(t *testing.T) {
	err := WithMetadata(CodeCharacterNotFound, "character abc not found", map[string]string{
		"character_id": "abc",
	})

	st, ok := status.FromError(err.ToGRPCStatus())
	if !ok {
		t.Fatal("expected a gRPC status error")
	}
	if st.Code() != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", st.Code())
	}
	if st.Message() != "character abc not found" {
		t.Fatalf("unexpected status message %q", st.Message())
	}
	if len(st.Details()) == 0 {
		t.Fatal("expected errdetails to be attached")
	}
}
