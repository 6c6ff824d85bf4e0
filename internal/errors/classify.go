package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/tidwall/gjson"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

// sdkStatus is what we can learn about a failed SDK call
type sdkStatus struct {
	code    int
	status  string
	reason  string
	message string
}

// Classify maps an error returned by the model SDK onto one of the typed
// errors of this package. Errors that carry no usable status are returned
// unchanged. The original error is always reachable through errors.Unwrap.
func Classify(err error, endpoint string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Message: endpoint, Err: err}
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &BlockedError{Message: blocked.Error(), Err: err}
	}

	st, ok := statusOf(err)
	if ok {
		msg := st.message
		if msg == "" {
			msg = err.Error()
		}
		switch {
		case st.code == http.StatusUnauthorized || st.code == http.StatusForbidden ||
			st.status == "UNAUTHENTICATED" || st.status == "PERMISSION_DENIED":
			return &AuthError{Message: msg, Err: err}
		case st.reason == "API_KEY_INVALID" || strings.Contains(msg, "API key not valid"):
			return &AuthError{Message: msg, Err: err}
		case st.code == http.StatusTooManyRequests || st.status == "RESOURCE_EXHAUSTED":
			return &UsageLimitError{Message: msg, Err: err}
		case st.code == http.StatusGatewayTimeout || st.status == "DEADLINE_EXCEEDED":
			return &TimeoutError{Message: msg, Err: err}
		case st.code > 0:
			return &APIError{StatusCode: st.code, Status: st.status, Message: msg, Endpoint: endpoint, Err: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &TimeoutError{Message: endpoint, Err: err}
		}
		return &NetworkError{Err: err}
	}

	return err
}

// statusOf extracts HTTP/gRPC status information from SDK errors.
func statusOf(err error) (sdkStatus, bool) {
	var st sdkStatus
	found := false

	var ae *apierror.APIError
	if errors.As(err, &ae) {
		found = true
		if code := ae.HTTPCode(); code > 0 {
			st.code = code
		}
		if gs := ae.GRPCStatus(); gs != nil {
			st.status = grpcStatusName(gs.Code())
			if st.code <= 0 {
				st.code = httpFromGRPC(gs.Code())
			}
			st.message = gs.Message()
		}
		st.reason = ae.Reason()
	}

	var ge *googleapi.Error
	if errors.As(err, &ge) {
		found = true
		if st.code <= 0 {
			st.code = ge.Code
		}
		if st.message == "" {
			st.message = ge.Message
		}
		if ge.Body != "" && gjson.Valid(ge.Body) {
			body := gjson.Parse(ge.Body)
			if s := body.Get("error.status").String(); s != "" && st.status == "" {
				st.status = s
			}
			if m := body.Get("error.message").String(); m != "" && st.message == "" {
				st.message = m
			}
			if st.reason == "" {
				body.Get("error.details").ForEach(func(_, detail gjson.Result) bool {
					if r := detail.Get("reason").String(); r != "" {
						st.reason = r
						return false
					}
					return true
				})
			}
		}
	}

	return st, found
}

func grpcStatusName(c codes.Code) string {
	switch c {
	case codes.Unauthenticated:
		return "UNAUTHENTICATED"
	case codes.PermissionDenied:
		return "PERMISSION_DENIED"
	case codes.ResourceExhausted:
		return "RESOURCE_EXHAUSTED"
	case codes.DeadlineExceeded:
		return "DEADLINE_EXCEEDED"
	case codes.InvalidArgument:
		return "INVALID_ARGUMENT"
	case codes.Unavailable:
		return "UNAVAILABLE"
	case codes.OK:
		return ""
	default:
		return strings.ToUpper(fmt.Sprint(c))
	}
}

func httpFromGRPC(c codes.Code) int {
	switch c {
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Internal, codes.Unknown:
		return http.StatusInternalServerError
	default:
		return 0
	}
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	var e *AuthError
	return errors.As(err, &e) || errors.Is(err, ErrNoAPIKey)
}

// IsRateLimitError reports whether err is a usage limit failure
func IsRateLimitError(err error) bool {
	var e *UsageLimitError
	return errors.As(err, &e)
}

// IsTimeoutError reports whether err is a timeout
func IsTimeoutError(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}

// IsBlockedError reports whether err is a safety block
func IsBlockedError(err error) bool {
	var e *BlockedError
	return errors.As(err, &e)
}

// GetHTTPStatus returns the HTTP status carried by err, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	if st, ok := statusOf(err); ok {
		return st.code
	}
	return 0
}

// GetEndpoint returns the endpoint carried by err, or ""
func GetEndpoint(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Endpoint
	}
	return ""
}

// Hint returns a short suggestion for the user, or "" if none applies
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case IsAuthError(err):
		return "Set GEMINI_API_KEY (or add it to .env) with a valid key"
	case IsRateLimitError(err):
		return "Usage limit reached. Try again later or use a different model"
	case IsBlockedError(err):
		return "The request was blocked by safety filters. Try rephrasing"
	case IsNetworkError(err):
		return "Check your internet connection"
	case IsTimeoutError(err):
		return "Request timed out. Try again or raise request_timeout"
	default:
		return ""
	}
}
