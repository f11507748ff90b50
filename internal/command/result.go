package command

import (
	"errors"
	"fmt"

	"github.com/shortcuty/shortcuty-cli/internal/api"
)

// FailureKind classifies every way a command can fail. The set is closed;
// handlers never surface raw errors past this boundary.
type FailureKind string

const (
	FailMissingCredential FailureKind = "MissingCredential"
	FailInvalidArguments  FailureKind = "InvalidArguments"
	FailUnknownCommand    FailureKind = "UnknownCommand"
	FailFileNotFound      FailureKind = "FileNotFound"
	FailNetworkError      FailureKind = "NetworkError"
	FailAPIError          FailureKind = "ApiError"
	FailPartialFailure    FailureKind = "PartialFailure"
)

// Failure is the uniform failure half of a Result. The JSON shape doubles as
// the --json error envelope.
type Failure struct {
	Kind    FailureKind `json:"error"`
	Status  int         `json:"status,omitempty"`
	Message string      `json:"message"`
	UUID    string      `json:"uuid,omitempty"`
}

// ExitCode maps each failure kind to a stable nonzero process exit code.
func (f *Failure) ExitCode() int {
	switch f.Kind {
	case FailAPIError:
		return 1
	case FailInvalidArguments, FailUnknownCommand:
		return 2
	case FailMissingCredential:
		return 3
	case FailFileNotFound:
		return 4
	case FailNetworkError:
		return 5
	case FailPartialFailure:
		return 6
	default:
		return 1
	}
}

// Result is the uniform outcome of any command: either a success payload or a
// typed failure, never both.
type Result struct {
	Payload any
	Failure *Failure
}

// ExitCode returns 0 for success and the failure's code otherwise.
func (r Result) ExitCode() int {
	if r.Failure == nil {
		return 0
	}
	return r.Failure.ExitCode()
}

// OK wraps a success payload.
func OK(payload any) Result {
	return Result{Payload: payload}
}

// Fail builds a failure result with a formatted message.
func Fail(kind FailureKind, format string, args ...any) Result {
	return Result{Failure: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// fromError recovers a typed failure from an ApiClient error.
func fromError(err error) Result {
	var partial *api.PartialSubmitError
	if errors.As(err, &partial) {
		return Result{Failure: &Failure{
			Kind:    FailPartialFailure,
			Message: partial.Error(),
			UUID:    partial.Shortcut.UUID,
		}}
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return Result{Failure: &Failure{
			Kind:    FailAPIError,
			Status:  apiErr.Status,
			Message: apiErr.Message,
		}}
	}

	var notFound *api.FileNotFoundError
	if errors.As(err, &notFound) {
		return Fail(FailFileNotFound, "%s", notFound.Error())
	}

	var invalidFile *api.InvalidFileError
	if errors.As(err, &invalidFile) {
		return Fail(FailInvalidArguments, "%s", invalidFile.Error())
	}

	var transport *api.TransportError
	if errors.As(err, &transport) {
		return Fail(FailNetworkError, "%s", transport.Error())
	}

	return Fail(FailNetworkError, "%v", err)
}

// Categories is the payload wrapper for the categories command, so JSON mode
// always emits an object with a categories array (empty, never null).
type Categories struct {
	Categories []string `json:"categories"`
}

// Notice is a plain informational payload.
type Notice struct {
	Message string `json:"message"`
}

// UpdateStatus is the payload of the check-updates command.
type UpdateStatus struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateAvailable bool   `json:"update_available"`
}
