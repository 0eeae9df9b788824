package pip

import "errors"

var (
	ErrUnsupported   = errors.New("pip: floating window not supported")
	ErrCaptureFailed = errors.New("pip: capture stream failed")
	ErrPresentFailed = errors.New("pip: floating window request failed")
)
