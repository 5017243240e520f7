// Package log defines standard attribute keys for modeling and serving operations.
//
// The keys follow a dotted naming convention ("model.name", "data.samples")
// so that training and prediction logs can be filtered the same way whether
// they are emitted through slog or zerolog.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "LinearRegression".
	ModelNameKey = "model.name"

	// OperationKey is the operation being performed: "fit", "predict", "score", "split".
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey is the lifecycle phase: "training", "validation", "inference".
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	TrainKey    = "data.train_samples"
	TestKey     = "data.test_samples"
	ColumnKey   = "data.column"
	SourceKey   = "data.source"
)

// Performance and evaluation.
const (
	DurationMsKey = "perf.duration_ms"
	R2ScoreKey    = "metrics.r2_score"
	RMSEKey       = "metrics.rmse"
	MAEKey        = "metrics.mae"
	RankKey       = "model.rank"
	InterceptKey  = "model.intercept"
)

// Prediction context.
const (
	PredsKey      = "preds.count"
	PredictionKey = "preds.value"
	DelayKey      = "preds.delay_ms"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	SuggestionKey = "error.suggestion"
)

// Configuration.
const (
	TestSizeKey   = "config.test_size"
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationSplit   = "split"
	OperationLoad    = "load"
	OperationClean   = "clean"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"
)
