package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	// ErrPlaybackBlocked means the output device refused to start
	// audio. It is recoverable: the track stays loaded and a later
	// start attempt may succeed.
	ErrPlaybackBlocked = errors.New("playback blocked by output device")
	// ErrMediaFailure means the current track could not be fetched or
	// decoded. It is terminal for that track; the engine will not
	// retry it.
	ErrMediaFailure = errors.New("media failed to load or decode")
	// ErrInvalidTrack marks a command argument that cannot identify
	// playable media.
	ErrInvalidTrack = errors.New("track is not playable")

	ErrStorageUnavailable = errors.New("session storage unavailable")
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrTrackNotFound      = errors.New("track not found")
	ErrLibraryEmpty       = errors.New("library is empty")
	ErrConfigNotFound     = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// StrumError wraps an error with a user-friendly suggestion.
type StrumError struct {
	Err        error
	Suggestion string
}

func (e *StrumError) Error() string {
	return e.Err.Error()
}

func (e *StrumError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &StrumError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	// Check if it's already a StrumError with suggestion
	var strumErr *StrumError
	if errors.As(err, &strumErr) && strumErr.Suggestion != "" {
		return strumErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	// Output device errors
	if errors.Is(err, ErrPlaybackBlocked) || strings.Contains(errStr, "playback blocked") {
		return "The audio device is not ready. Press play again, or check that no other program holds it"
	}

	if errors.Is(err, ErrMediaFailure) || errors.Is(err, ErrUnsupportedFormat) ||
		strings.Contains(errStr, "decode") {
		return "The file could not be played. Check that it exists and is a supported format (mp3, wav, flac, ogg)"
	}

	// Library errors
	if errors.Is(err, ErrTrackNotFound) || strings.Contains(errStr, "track not found") {
		return "Run 'strum library scan' to refresh the library, or broaden your search"
	}

	if errors.Is(err, ErrLibraryEmpty) || strings.Contains(errStr, "library is empty") {
		return "Add folders under [library] in your config, then run 'strum library scan'"
	}

	// Session storage errors
	if errors.Is(err, ErrStorageUnavailable) || strings.Contains(errStr, "storage") {
		return "Playback continues, but the session will not be remembered. Check permissions on the state directory"
	}

	// Config errors
	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) ||
		strings.Contains(errStr, "config") {
		return "Run 'strum config init' to create a starter configuration"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
