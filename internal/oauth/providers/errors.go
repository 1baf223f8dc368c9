package providers

import (
	"errors"
	"fmt"
)

// ErrUnsupportedProvider indicates an unknown provider name was passed to
// the registry. Always a client input error.
var ErrUnsupportedProvider = errors.New("unsupported oauth provider")

// ErrMissingPKCEVerifier indicates a PKCE provider callback arrived with no
// resolvable code verifier. A client/flow error, not retryable server-side.
var ErrMissingPKCEVerifier = errors.New("missing pkce code verifier")

// ErrUserInfoNotSupported is returned by adapters that intentionally expose
// tokens only and skip the user-info call.
var ErrUserInfoNotSupported = errors.New("user info not supported by this provider")

// ProviderError carries a provider's non-2xx response verbatim: the status
// code and the raw error body. It is never retried automatically.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       []byte
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// TransportError indicates the provider could not be reached at all
// (connection failure, timeout, cancellation). Distinct from ProviderError
// so callers can tell "provider rejected us" from "we couldn't reach the
// provider".
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: provider unreachable: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
