package llm

import "fmt"

// ExtractionError is returned when no JSON object can be recovered from generated text
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid JSON response: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid JSON response: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ServiceError is returned when the generation service fails or answers with nothing usable
type ServiceError struct {
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation service error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation service error: %s", e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}
