package sentinel

import "fmt"

// Compile-time check that Error implements the error interface.
var _ error = Error("")

// Error is an immutable error type backed by a string constant.
// Unlike errors.New, which returns a pointer and must be stored in a var,
// Error values can be declared as const, preventing reassignment.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}

// Errorf returns an error whose message is the sentinel text followed by the
// formatted detail ("<sentinel>: <detail>"). The result matches e with
// errors.Is. Additional %w verbs in format are honored.
func (e Error) Errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{e}, args...)...)
}
