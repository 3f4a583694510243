// Package common defines sentinel errors shared by the loader packages.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Metadata record errors.
	ErrMissingField = errors.New("missing required metadata field")

	// Archive descriptor errors.
	ErrInvalidVersion = errors.New("invalid archive version")
	ErrInvalidLevel   = errors.New("archive name does not encode a data level")

	// Transport errors.
	ErrUnexpectedStatus = errors.New("unexpected http status")

	// Archive extraction errors.
	ErrUnsupportedEntry = errors.New("unsupported archive entry")

	// GDC / IndexD errors.
	ErrDataMismatch      = errors.New("expected data mismatch")
	ErrAmbiguousLocation = errors.New("expected exactly one gs:// location")
	ErrParcelFile        = errors.New("unexpected parcel file in download tree")

	// Export errors.
	ErrUnknownSampleCode = errors.New("unknown sample type code")
)
