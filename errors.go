package actinorm

import (
	"errors"
	"fmt"
)

// Error kinds raised during ingestion and normalization. Check them with
// errors.Is; concrete errors wrap one of these with file-specific detail.
var (
	ErrSchemaNotFound            = errors.New("schema not found")
	ErrTimestampFormatMismatch   = errors.New("timestamp format mismatch")
	ErrInsufficientData          = errors.New("insufficient data")
	ErrAmbiguousEpochDuration    = errors.New("ambiguous epoch duration")
	ErrEmptySeries               = errors.New("empty series")
	ErrIncompatibleConfiguration = errors.New("incompatible configuration")
	ErrSeriesQuality             = errors.New("series quality below policy")
)

// ConversionError pairs an error kind with detail about the file or
// configuration that produced it.
type ConversionError struct {
	Kind error
	Msg  string
}

func (e *ConversionError) Error() string {
	return e.Kind.Error() + ": " + e.Msg
}

func (e *ConversionError) Unwrap() error {
	return e.Kind
}

func schemaErrorf(format string, args ...any) error {
	return &ConversionError{Kind: ErrSchemaNotFound, Msg: fmt.Sprintf(format, args...)}
}

func patternErrorf(format string, args ...any) error {
	return &ConversionError{Kind: ErrTimestampFormatMismatch, Msg: fmt.Sprintf(format, args...)}
}

func dataErrorf(format string, args ...any) error {
	return &ConversionError{Kind: ErrInsufficientData, Msg: fmt.Sprintf(format, args...)}
}

func emptyErrorf(format string, args ...any) error {
	return &ConversionError{Kind: ErrEmptySeries, Msg: fmt.Sprintf(format, args...)}
}

func configErrorf(format string, args ...any) error {
	return &ConversionError{Kind: ErrIncompatibleConfiguration, Msg: fmt.Sprintf(format, args...)}
}

func qualityErrorf(format string, args ...any) error {
	return &ConversionError{Kind: ErrSeriesQuality, Msg: fmt.Sprintf(format, args...)}
}
