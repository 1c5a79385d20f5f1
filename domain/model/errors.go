package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies recoverable failures inside the retrieval core.
// No kind ever escapes the orchestrator as an error; they drive logging
// and the response metadata only.
type ErrorKind string

const (
	ErrKindConnectivity     ErrorKind = "connectivity"
	ErrKindRateLimited      ErrorKind = "rate_limited"
	ErrKindParse            ErrorKind = "parse"
	ErrKindCacheUnavailable ErrorKind = "cache_unavailable"
	ErrKindTotalMiss        ErrorKind = "total_miss"
)

// ErrStoreUnavailable is returned by the persistent tier when its client
// is absent or unreachable; the cache degrades to memory-only on it.
var ErrStoreUnavailable = errors.New("persistent store unavailable")

// LayerError carries the failing layer and source alongside the kind so
// degradation paths can log uniformly.
type LayerError struct {
	Layer  string
	Source string
	Kind   ErrorKind
	Err    error
}

func (e *LayerError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s/%s: %s: %v", e.Layer, e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Layer, e.Kind, e.Err)
}

func (e *LayerError) Unwrap() error { return e.Err }

// NewLayerError wraps err with its layer, source and kind.
func NewLayerError(layer, source string, kind ErrorKind, err error) *LayerError {
	return &LayerError{Layer: layer, Source: source, Kind: kind, Err: err}
}

// KindOf extracts the error kind, defaulting to connectivity for plain
// transport errors.
func KindOf(err error) ErrorKind {
	var le *LayerError
	if errors.As(err, &le) {
		return le.Kind
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return ErrKindCacheUnavailable
	}
	return ErrKindConnectivity
}
