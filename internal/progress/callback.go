// Package progress provides progress reporting for long-running simulations.
package progress

// Callback is a function that reports progress during long operations.
// Parameters:
//   - current: Number of items completed
//   - total: Total number of items
//   - message: Human-readable description of the current phase
//
// A nil Callback is valid and will be safely ignored by the Call() helper.
type Callback func(current, total int, message string)

// Call safely invokes the callback if non-nil.
func Call(cb Callback, current, total int, message string) {
	if cb != nil {
		cb(current, total, message)
	}
}
