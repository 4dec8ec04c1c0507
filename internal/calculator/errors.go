package calculator

import "fmt"

// DomainError is returned by a calculator that rejects its input as physically
// or logically invalid. The dispatcher surfaces the message to the client verbatim.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string { return e.Message }

// Errorf builds a DomainError.
func Errorf(format string, args ...any) error {
	return &DomainError{Message: fmt.Sprintf(format, args...)}
}

// UnknownScenario is the DomainError for a scenario a calculator does not implement.
func UnknownScenario(scenario string) error {
	return Errorf("unknown scenario: %s", scenario)
}
