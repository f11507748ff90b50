package api

import "fmt"

// APIError is a server-reported failure: the request reached the API and the
// API answered with a status >= 400.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed (%d): %s", e.Status, e.Message)
}

// TransportError is a transport-level failure: no usable response was received
// (DNS failure, connection refused, timeout, unreadable body).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PartialSubmitError reports a create that succeeded followed by an auto-submit
// that failed. It carries the created shortcut so the caller can surface the
// UUID; the shortcut exists server-side despite the error.
type PartialSubmitError struct {
	Shortcut Shortcut
	Err      error
}

func (e *PartialSubmitError) Error() string {
	return fmt.Sprintf("shortcut %s was created but submission failed: %v", e.Shortcut.UUID, e.Err)
}

func (e *PartialSubmitError) Unwrap() error {
	return e.Err
}

// FileNotFoundError reports a local screenshot path that does not exist.
// Raised before any network call is attempted.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// InvalidFileError reports a screenshot file that is not a PNG or JPEG image.
type InvalidFileError struct {
	Path     string
	Detected string
}

func (e *InvalidFileError) Error() string {
	return fmt.Sprintf("invalid screenshot file %s: detected %s, expected image/png or image/jpeg", e.Path, e.Detected)
}
