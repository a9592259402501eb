// Package monitoring holds the module-wide diagnostic logger. Segmentation
// runs are batch computations, so a single redirectable Logf is all the
// observability surface they need.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf;
// callers that embed the segmenter can redirect or mute it with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
