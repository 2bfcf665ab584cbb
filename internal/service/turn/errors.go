package turn

import "fmt"

// ValidationError blocks a turn before anything is appended to the transcript.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrEmptyInput = &ValidationError{Message: "Please enter a message or upload a file."}
	ErrNoContent  = &ValidationError{Message: "No content to send. Please type a message or ensure files are processable."}
)

// FileProcessingError reports a parse or decode failure for one file.
type FileProcessingError struct {
	Kind FileKind
	Name string
	Err  error
}

func (e *FileProcessingError) Error() string {
	return fmt.Sprintf("Error processing %s file %s: %v", e.Kind.Label(), e.Name, e.Err)
}

func (e *FileProcessingError) Unwrap() error {
	return e.Err
}
