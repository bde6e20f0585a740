package errors

import "errors"

var (
	ErrIngestion          = errors.New("ingestion failed")
	ErrIndexInconsistency = errors.New("index inconsistency")
	ErrProvider           = errors.New("provider error")
	ErrProviderTimeout    = errors.New("provider timeout")
	ErrInvalid            = errors.New("invalid")
	ErrNotFound           = errors.New("not found")
)

func IsIngestion(err error) bool {
	return errors.Is(err, ErrIngestion)
}

func IsProviderFailure(err error) bool {
	return errors.Is(err, ErrProvider) || errors.Is(err, ErrProviderTimeout)
}
