package provider

import (
	"context"
	"errors"
	"time"

	"fupan/pkg/model"
)

// ErrNoData marks a day the upstream has no session data for
// (typically a non-trading day that slipped past the calendar).
var ErrNoData = errors.New("no market data for date")

// Provider fetches the full sentiment snapshot for one trading day.
type Provider interface {
	// Name returns the provider name
	Name() string

	// FetchDay builds the snapshot for the given day. It fails with an
	// error wrapping ErrNoData when the upstream has nothing for it.
	FetchDay(ctx context.Context, day time.Time) (*model.Snapshot, error)
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
