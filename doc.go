// Package autoprice predicts car prices from engine and body measurements.
//
// A LinearRegression is fitted by ordinary least squares on the UCI
// automobile dataset and served through a small HTTP dashboard with price
// prediction, exploratory charts and a filterable car list.
//
// # Quick Start
//
//	autoprice train --config autoprice.yaml
//	autoprice serve --config autoprice.yaml
//
// Settings are read from the config file and AUTOPRICE_* environment
// variables, for example AUTOPRICE_SERVER_PORT=8080 or
// AUTOPRICE_PREDICT_DELAY=0s.
//
// # Packages
//
//   - linear: LinearRegression solved through a thin SVD of the centered design
//   - preprocessing: column centering of the design matrix
//   - model_selection: seeded train/test split
//   - metrics: MSE, RMSE, MAE, R²
//   - training: end-to-end training, evaluation and the delayed predictor
//   - dataset: loading, cleaning and filtering the automobile table
//   - charts: exploratory plots rendered with gonum/plot
//   - server: HTTP dashboard, JSON API and prometheus metrics
//   - config: viper-backed configuration
//   - core/model, core/parallel: estimator interfaces and row-parallel helpers
//   - pkg/errors, pkg/log: structured errors, warnings and logging
package autoprice
