// Package recognize integrates the external text-recognition engines that
// turn an invoice image into raw text. The engines are opaque to the rest of
// the system: they take image bytes, report coarse progress, and either
// return the transcribed text or fail.
package recognize

import "context"

// ProgressFunc receives recognition progress as a percentage in [0,100].
// Engines call it with non-decreasing values at fixed stages; passing nil is
// allowed and disables reporting.
type ProgressFunc func(percent int)

// Engine converts one invoice image into raw recognized text.
type Engine interface {
	// Recognize transcribes the image. It may run for a long time; the
	// context bounds it. A cancelled context surfaces as an error.
	Recognize(ctx context.Context, image []byte, contentType string, onProgress ProgressFunc) (string, error)

	// Close releases engine resources.
	Close() error
}

// Progress stages shared by the engine implementations. The values are
// deterministic so pipeline tests can assert exact sequences.
const (
	progressValidated  = 10
	progressConverted  = 30
	progressDispatched = 50
	progressReceived   = 90
)

func report(onProgress ProgressFunc, percent int) {
	if onProgress != nil {
		onProgress(percent)
	}
}
