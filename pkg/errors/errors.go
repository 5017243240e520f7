// Package errors provides the structured errors and warnings used across autoprice.
//
// Every constructor attaches a stack trace through cockroachdb/errors, and the
// error kinds the modeling core reports are exposed as stable codes through Kind.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("autoprice-warning: %v\n", w)
	}
	// set by pkg/log to avoid an import cycle
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the handler invoked by Warn and returns the
// previous one.
//
// Example:
//
//	prev := errors.SetWarningHandler(func(w error) {
//	    // ignore warnings
//	})
//	defer errors.SetWarningHandler(prev)
func SetWarningHandler(handler func(w error)) func(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	prev := warningHandler
	warningHandler = handler
	return prev
}

// SetZerologWarnFunc installs a structured warning sink. When set it takes
// precedence over the plain handler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn reports a non-fatal condition such as a rank-deficient design matrix.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warnings
//
// ===========================================================================

// RankDeficiencyWarning reports a singular or ill-conditioned design matrix.
// The fit still succeeds with the minimum-norm solution.
type RankDeficiencyWarning struct {
	Op       string
	Rank     int
	Features int
	Rcond    float64
}

func (w *RankDeficiencyWarning) Error() string {
	return fmt.Sprintf("%s: design matrix is rank deficient (rank %d < %d features, rcond=%g); using minimum-norm solution",
		w.Op, w.Rank, w.Features, w.Rcond)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *RankDeficiencyWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Int("rank", w.Rank).
		Int("features", w.Features).
		Float64("rcond", w.Rcond).
		Str("type", "RankDeficiencyWarning")
}

// NewRankDeficiencyWarning creates a RankDeficiencyWarning.
func NewRankDeficiencyWarning(op string, rank, features int, rcond float64) *RankDeficiencyWarning {
	return &RankDeficiencyWarning{Op: op, Rank: rank, Features: features, Rcond: rcond}
}

// DataConversionWarning is raised when input cells were coerced or imputed.
type DataConversionWarning struct {
	Column   string
	Replaced int
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("column %q: %d value(s) replaced. Reason: %s", w.Column, w.Replaced, w.Reason)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("column", w.Column).
		Int("replaced", w.Replaced).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning creates a DataConversionWarning.
func NewDataConversionWarning(column string, replaced int, reason string) *DataConversionWarning {
	return &DataConversionWarning{Column: column, Replaced: replaced, Reason: reason}
}

// UndefinedMetricWarning is raised when an evaluation metric cannot be computed,
// for example R² on a test partition without variance.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// NewUndefinedMetricWarning creates an UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	Structured errors
//
// ===========================================================================

// NotFittedError is returned when Predict or Score is called before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("autoprice: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError reports a shape that differs from the one the model was fitted with.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("autoprice: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisName(e.Axis), e.Expected, e.Got)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName(e.Axis)).
		Str("type", "DimensionError")
}

func axisName(axis int) string {
	if axis == 0 {
		return "rows"
	}
	return "features"
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError reports invalid input: bad parameters, mismatched row counts,
// unknown columns or non-finite values. Nothing is fitted when it is returned.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("autoprice: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ModelError is a general modeling failure that wraps its cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("autoprice: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("autoprice: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	Error kinds
//
// ===========================================================================

// Stable error codes, shared with log attributes and HTTP error bodies.
const (
	KindInvalidInput      = "INVALID_INPUT"
	KindDimensionMismatch = "DIMENSION_MISMATCH"
	KindSingular          = "SINGULAR_OR_ILL_CONDITIONED"
	KindNotFitted         = "NOT_FITTED"
	KindModel             = "MODEL_ERROR"
	KindInternal          = "INTERNAL"
)

// Kind classifies err into one of the Kind* codes. A nil error yields "".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var (
		validationErr *ValidationError
		dimensionErr  *DimensionError
		notFittedErr  *NotFittedError
		rankWarning   *RankDeficiencyWarning
		modelErr      *ModelError
	)
	switch {
	case errors.As(err, &validationErr):
		return KindInvalidInput
	case errors.As(err, &dimensionErr):
		return KindDimensionMismatch
	case errors.As(err, &notFittedErr):
		return KindNotFitted
	case errors.As(err, &rankWarning):
		return KindSingular
	case errors.As(err, &modelErr):
		return KindModel
	default:
		return KindInternal
	}
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

var (
	// ErrEmptyData is returned when a dataset or matrix has no rows.
	ErrEmptyData = New("empty data")

	// ErrFactorization is returned when the SVD does not converge.
	ErrFactorization = New("svd factorization failed")
)
