package pipeline

import "fmt"

// FileError represents a failure to process one file
type FileError struct {
	File  string
	Stage Kind
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.File, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
