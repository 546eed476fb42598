package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrBatchUnsupported is returned by SubmitBatch on vendors without a native
// batch API. Callers fall back to single-prompt generation.
var ErrBatchUnsupported = errors.New("batch submission not supported by vendor")

// ClientError wraps vendor errors with status and timeout metadata.
type ClientError struct {
	Vendor    Vendor
	Status    int
	Timeout   bool
	Temporary bool
	Err       error
}

func (e *ClientError) Error() string {
	if e == nil {
		return "client error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Vendor, e.Err)
	}
	return fmt.Sprintf("%s: client error (status=%d)", e.Vendor, e.Status)
}

func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewTimeoutError marks an error as a vendor call timeout.
func NewTimeoutError(vendor Vendor, err error) *ClientError {
	return &ClientError{Vendor: vendor, Timeout: true, Temporary: true, Err: err}
}

// wrapVendorErr converts a raw vendor error, promoting context deadline
// expiry into a distinguishable timeout.
func wrapVendorErr(ctx context.Context, vendor Vendor, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return NewTimeoutError(vendor, err)
	}
	return &ClientError{Vendor: vendor, Err: err}
}

// IsTimeout reports whether an error is a vendor call timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Timeout
	}
	return false
}

// IsTransient reports whether an error is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if IsTimeout(err) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		if clientErr.Temporary {
			return true
		}
		if clientErr.Status == 429 || (clientErr.Status >= 500 && clientErr.Status <= 599) {
			return true
		}
	}
	return false
}
