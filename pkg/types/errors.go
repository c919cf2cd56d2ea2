package types

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableImage is reported when an image has no readable size.
	ErrUnreadableImage = errors.New("image unreadable")

	// ErrNoSuggestion is recorded for batch items that produced no crop.
	ErrNoSuggestion = errors.New("No suggestion")

	// ErrUnknownPlatform is returned for safe-zone platforms outside the known set.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrEmptyCrop is returned when a crop rectangle has no pixels.
	ErrEmptyCrop = errors.New("empty crop rectangle")
)

// ManipulationError wraps a failure of the image manipulation provider.
type ManipulationError struct {
	Op  string
	Ref ImageRef
	Err error
}

func (e *ManipulationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Ref, e.Err)
}

func (e *ManipulationError) Unwrap() error {
	return e.Err
}
