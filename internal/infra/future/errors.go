package future

import "errors"

// ErrNilFailure replaces a nil error passed to Promise.Fail.
var ErrNilFailure = errors.New("promise failed without a cause")
