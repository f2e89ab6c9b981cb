package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Turn errors
	CodeTurnInvalidRequest Code = "TURN_INVALID_REQUEST"
	CodeTurnRateLimited    Code = "TURN_RATE_LIMITED"

	// Policy errors
	CodePolicyInvalidProbability Code = "POLICY_INVALID_PROBABILITY"

	// Game-state service errors
	CodeCharacterNotFound   Code = "CHARACTER_NOT_FOUND"
	CodeUpstreamTimeout     Code = "UPSTREAM_TIMEOUT"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamClient      Code = "UPSTREAM_CLIENT_ERROR"

	// Narrative model errors
	CodeModelTimeout         Code = "MODEL_TIMEOUT"
	CodeModelInvalidResponse Code = "MODEL_INVALID_RESPONSE"
	CodeModelConfiguration   Code = "MODEL_CONFIGURATION"
	CodeModelClient          Code = "MODEL_CLIENT_ERROR"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeStorage  Code = "STORAGE_ERROR"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeTurnInvalidRequest,
		CodePolicyInvalidProbability:
		return codes.InvalidArgument

	// NotFound - missing records
	case CodeCharacterNotFound,
		CodeNotFound:
		return codes.NotFound

	// ResourceExhausted - throttling
	case CodeTurnRateLimited:
		return codes.ResourceExhausted

	// DeadlineExceeded - downstream timeouts
	case CodeUpstreamTimeout,
		CodeModelTimeout:
		return codes.DeadlineExceeded

	// Unavailable - downstream outages
	case CodeUpstreamUnavailable:
		return codes.Unavailable

	// FailedPrecondition - misconfiguration
	case CodeModelConfiguration:
		return codes.FailedPrecondition

	// Internal - everything else downstream or local
	case CodeUpstreamClient,
		CodeModelInvalidResponse,
		CodeModelClient,
		CodeStorage:
		return codes.Internal
	}
	return codes.Unknown
}

// HTTPStatus maps domain codes to HTTP response status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeTurnInvalidRequest,
		CodePolicyInvalidProbability:
		return http.StatusBadRequest
	case CodeCharacterNotFound,
		CodeNotFound:
		return http.StatusNotFound
	case CodeTurnRateLimited:
		return http.StatusTooManyRequests
	case CodeUpstreamTimeout,
		CodeModelTimeout:
		return http.StatusGatewayTimeout
	case CodeUpstreamUnavailable:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
