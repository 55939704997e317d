package errors

import (
	"strings"
)

// UserFriendlyError provides actionable error messages for end users
type UserFriendlyError struct {
	Message    string // User-facing message explaining what went wrong
	Suggestion string // Actionable steps to fix the issue
	DocsLink   string // Optional link to documentation
	Details    error  // Original error for debugging/logs
}

func (e *UserFriendlyError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString("How to fix:\n")
		sb.WriteString(e.Suggestion)
	}

	if e.DocsLink != "" {
		sb.WriteString("\n\n")
		sb.WriteString("Documentation: ")
		sb.WriteString(e.DocsLink)
	}

	return sb.String()
}

func (e *UserFriendlyError) Unwrap() error {
	return e.Details
}

// NewFriendlyError creates a user-friendly error
func NewFriendlyError(message, suggestion string) *UserFriendlyError {
	return &UserFriendlyError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// WithDetails adds the underlying error details
func (e *UserFriendlyError) WithDetails(err error) *UserFriendlyError {
	e.Details = err
	return e
}

// WithDocs adds a documentation link
func (e *UserFriendlyError) WithDocs(link string) *UserFriendlyError {
	e.DocsLink = link
	return e
}

// ConfigError reports a config file that could not be loaded or failed
// validation.
func ConfigError(path string, err error) *UserFriendlyError {
	issue := "unknown problem"
	if err != nil {
		issue = err.Error()
	}
	return (&UserFriendlyError{
		Message:    "Configuration error in " + path + ": " + issue,
		Suggestion: "Run 'modinstall config validate --config " + path + "' to check your configuration",
		DocsLink:   "https://github.com/jxwalker/modinstall#configuration",
	}).WithDetails(err)
}

// DatabaseError returns database-related errors with recovery suggestions
func DatabaseError(err error) *UserFriendlyError {
	msg := "Settings database error"
	suggestion := "Check that the data_root directory is writable"

	if err != nil {
		errStr := err.Error()

		if strings.Contains(errStr, "locked") {
			msg = "Settings database is locked by another process"
			suggestion = "Close other modinstall instances and try again"
		}

		if strings.Contains(errStr, "corrupt") || strings.Contains(errStr, "malformed") {
			msg = "Settings database is corrupted"
			suggestion = "Move state.db out of the data_root directory; stored install folders will be forgotten"
		}
	}

	return &UserFriendlyError{
		Message:    msg,
		Suggestion: suggestion,
		Details:    err,
	}
}

// PathError returns file/directory path related errors
func PathError(path string, err error) *UserFriendlyError {
	msg := "Path error: " + path
	suggestion := "Check that the path exists and you have permission to access it"

	if err != nil {
		errStr := err.Error()

		if strings.Contains(errStr, "permission denied") {
			msg = "Permission denied: " + path
			suggestion = "Ensure you have write permission:\n  chmod u+w " + path
		}

		if strings.Contains(errStr, "no such file or directory") {
			msg = "File or directory does not exist: " + path
			suggestion = "Check the spelling of the path or pick the file again"
		}

		if strings.Contains(errStr, "not a directory") {
			msg = "Path exists but is not a directory: " + path
			suggestion = "Remove the file or choose a different path"
		}
	}

	return &UserFriendlyError{
		Message:    msg,
		Suggestion: suggestion,
		Details:    err,
	}
}
