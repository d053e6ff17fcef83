// -----------------------------------------------------------------------
// Safe execution - Panic-protected wrappers
// -----------------------------------------------------------------------

package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
)

// PanicError is returned by SafeRun when fn panicked
type PanicError struct {
	Name  string
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Name, e.Value)
}

// SafeRun calls fn synchronously and converts a panic into a *PanicError.
// The panic is logged so one misbehaving scenario cannot take the whole run down.
//
// Example:
//
//	err := common.SafeRun(logger, "landing-page", func() error {
//	    return scenario.Run(ctx, session)
//	})
func SafeRun(logger arbor.ILogger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stackTrace := GetStackTrace()

			if logger != nil {
				logger.Error().
					Str("name", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stackTrace).
					Msg("Recovered from panic - continuing run")
			}

			err = &PanicError{Name: name, Value: r, Stack: stackTrace}
		}
	}()

	return fn()
}
