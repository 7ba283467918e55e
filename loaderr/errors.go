// SPDX-License-Identifier: EPL-2.0

// Package loaderr defines the error taxonomy shared by the loader packages.
//
// Callers classify failures with errors.Is:
//
//	if errors.Is(err, loaderr.ErrEndOfEpoch) {
//	    it.Reset()
//	}
//
// Configuration and graph errors are fatal and surface while a pipeline is
// being constructed. Decode errors are recovered per sample. End of epoch is a
// control signal, not a failure.
package loaderr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports invalid shard, device, policy or size values.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrGraph reports a structural mistake found while building a pipeline.
	ErrGraph = errors.New("invalid pipeline graph")

	// ErrDecode reports a single audio file that could not be decoded.
	ErrDecode = errors.New("decode failed")

	// ErrClosedPipeline is returned by any operation on a closed pipeline.
	ErrClosedPipeline = errors.New("pipeline is closed")

	// ErrEndOfEpoch signals that the reader has no more entries this epoch.
	ErrEndOfEpoch = errors.New("end of epoch")
)

// DecodeError carries the file that failed and the underlying cause.
// It matches both ErrDecode and Err under errors.Is.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// NewDecodeError wraps err for path.
func NewDecodeError(path string, err error) *DecodeError {
	return &DecodeError{Path: path, Err: err}
}
