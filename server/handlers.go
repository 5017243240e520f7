package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/autoprice/charts"
	"github.com/YuminosukeSato/autoprice/dataset"
	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"github.com/YuminosukeSato/autoprice/training"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 16

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type predictResponse struct {
	Price float64 `json:"price"`
}

type chartInfo struct {
	Kind  charts.Kind `json:"kind"`
	Title string      `json:"title"`
	URL   string      `json:"url"`
}

type modelResponse struct {
	ModelType    string             `json:"model_type"`
	Target       string             `json:"target"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	Features     []string           `json:"features"`
	Rank         int                `json:"rank"`
	Report       training.Report    `json:"report"`
}

// writeJSON encodes v before sending the status, so an encoding failure
// becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{
			Error: errors.Wrap(err, "encoding response").Error(),
			Code:  errors.KindInternal,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	switch errors.Kind(err) {
	case errors.KindInvalidInput, errors.KindDimensionMismatch:
		return http.StatusBadRequest
	case errors.KindNotFitted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.Kind(err)

	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("error_code", code).Msg("Request failed")

	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

type indexData struct {
	Charts     []chartInfo
	FuelTypes  []string
	BodyStyles []string
	Defaults   training.CarSpec
	Report     training.Report
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Charts:     chartList(),
		FuelTypes:  s.fuelTypes,
		BodyStyles: s.bodyStyles,
		Defaults: training.CarSpec{
			NormalizedLosses: 100, WheelBase: 95, EngineSize: 130, Bore: 3.2,
			Stroke: 3.0, CompressionRatio: 9.0, Horsepower: 120, PeakRPM: 5200,
		},
		Report: s.opts.Result.Report,
	}

	var buf bytes.Buffer
	if err := s.index.Execute(&buf, data); err != nil {
		writeError(w, r, errors.Wrap(err, "rendering dashboard"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var values map[string]float64
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&values); err != nil {
		s.metrics.RecordPrediction(errors.KindInvalidInput, time.Since(start))
		writeError(w, r, errors.NewValidationError("body", "expected a JSON object of numeric feature values", err.Error()))
		return
	}

	car, err := training.CarSpecFromFeatures(values)
	if err != nil {
		s.metrics.RecordPrediction(errors.Kind(err), time.Since(start))
		writeError(w, r, err)
		return
	}

	price, err := training.PredictCarPrice(r.Context(), s.opts.Predictor, car)
	if err != nil {
		s.metrics.RecordPrediction(errors.Kind(err), time.Since(start))
		writeError(w, r, err)
		return
	}
	s.metrics.RecordPrediction("ok", time.Since(start))

	zerolog.Ctx(r.Context()).Debug().Float64("price", price).Msg("Price predicted")
	writeJSON(w, http.StatusOK, predictResponse{Price: price})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	m := s.opts.Result.Model
	writeJSON(w, http.StatusOK, modelResponse{
		ModelType:    m.Weights().ModelType,
		Target:       training.Price,
		Intercept:    m.Intercept(),
		Coefficients: m.Coefficients(),
		Features:     m.FeatureNames(),
		Rank:         m.Rank(),
		Report:       s.opts.Result.Report,
	})
}

func chartList() []chartInfo {
	kinds := charts.Kinds()
	out := make([]chartInfo, len(kinds))
	for i, k := range kinds {
		out[i] = chartInfo{Kind: k, Title: k.Title(), URL: "/api/charts/" + string(k)}
	}
	return out
}

func (s *Server) handleChartList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chartList())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind := charts.Kind(mux.Vars(r)["kind"])
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = charts.FormatPNG
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, s.opts.Table, s.opts.Features, kind, format); err != nil {
		writeError(w, r, err)
		return
	}

	contentType := "image/png"
	if format == charts.FormatSVG {
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "max-age=3600")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleCars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := dataset.FilterOptions{
		FuelType:  q.Get("fuel_type"),
		BodyStyle: q.Get("body_style"),
	}
	for _, param := range []string{"min_price", "max_price"} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, r, errors.NewValidationError(param, "must be a number", raw))
			return
		}
		if param == "min_price" {
			opts.MinPrice = v
		} else {
			opts.MaxPrice = dataset.Bound(v)
		}
	}

	res, err := dataset.Filter(s.opts.Table, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
