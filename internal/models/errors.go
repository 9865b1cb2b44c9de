package models

import "fmt"

// OutOfRangeError indicates an input count or score outside its valid
// domain. Inputs are rejected, never silently clamped.
type OutOfRangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s out of range: %g not in [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// IsTransient returns false as range errors are permanent
func (e *OutOfRangeError) IsTransient() bool {
	return false
}

// DataUnavailableError indicates that no statistics exist for the
// requested reference year.
type DataUnavailableError struct {
	Year int
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("no statistics available for year %d", e.Year)
}

// IsTransient returns true: statistics may appear after ingestion
func (e *DataUnavailableError) IsTransient() bool {
	return true
}

// DegenerateCalibrationError indicates that the calibration regression
// could not be fitted (too few records or collinear input). Callers skip
// calibration and fall back to the default model; this is never fatal.
type DegenerateCalibrationError struct {
	Area   Area
	Reason string
}

func (e *DegenerateCalibrationError) Error() string {
	return fmt.Sprintf("calibration degenerate for %s: %s", e.Area, e.Reason)
}

// IsTransient returns false as the supplied history will not change mid-run
func (e *DegenerateCalibrationError) IsTransient() bool {
	return false
}

// InvalidInputError indicates an aggregate-level validation failure.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *InvalidInputError) IsTransient() bool {
	return false
}
