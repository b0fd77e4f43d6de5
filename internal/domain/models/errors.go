package models

import "errors"

var (
	// ErrProviderUnavailable means no feature series could be fetched at all.
	ErrProviderUnavailable = errors.New("no data fetched for any features")
	// ErrNoData means the provider returned an empty result for a symbol.
	ErrNoData = errors.New("no data found")
	// ErrNoCloseColumn means the provider result lacks the expected close column.
	ErrNoCloseColumn = errors.New("no close column")
	// ErrFeatureWidth means a feature vector does not match the model input width.
	ErrFeatureWidth = errors.New("feature vector width mismatch")
)
