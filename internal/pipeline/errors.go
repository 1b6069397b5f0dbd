package pipeline

import "errors"

// ErrNoData is the error carried by a NoDataAvailable result.
var ErrNoData = errors.New("pipeline: prediction log is empty")
