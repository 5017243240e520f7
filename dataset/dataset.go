// Package dataset loads and cleans the automobile table the price model is
// trained on.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"github.com/YuminosukeSato/autoprice/pkg/log"
	"gonum.org/v1/gonum/stat"
)

// DefaultURL is the UCI Automobile dataset.
const DefaultURL = "https://archive.ics.uci.edu/ml/machine-learning-databases/autos/imports-85.data"

// DefaultHeaders names the 26 columns of imports-85.data, which has no header row.
var DefaultHeaders = []string{
	"symboling", "normalized_losses", "make", "fuel_type", "aspiration",
	"num_doors", "body_style", "drive_wheels", "engine_location",
	"wheel_base", "length", "width", "height", "curb_weight",
	"engine_type", "num_cylinders", "engine_size", "fuel_system",
	"bore", "stroke", "compression_ratio", "horsepower", "peak_rpm",
	"city_mpg", "highway_mpg", "price",
}

// DefaultNumericColumns are the columns containing missing markers that are
// coerced to numbers by Clean.
var DefaultNumericColumns = []string{"normalized_losses", "bore", "stroke", "horsepower", "peak_rpm", "price"}

// Config selects the data source and describes its layout.
type Config struct {
	// URL is fetched when Path is empty.
	URL string `mapstructure:"url"`
	// Path is a local copy of the data file.
	Path           string        `mapstructure:"path"`
	Headers        []string      `mapstructure:"headers"`
	NumericColumns []string      `mapstructure:"numeric_columns"`
	MissingMarker  string        `mapstructure:"missing_marker"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns the configuration of the UCI Automobile dataset.
func DefaultConfig() Config {
	return Config{
		URL:            DefaultURL,
		Headers:        slices.Clone(DefaultHeaders),
		NumericColumns: slices.Clone(DefaultNumericColumns),
		MissingMarker:  "?",
		Timeout:        30 * time.Second,
	}
}

// Table is an immutable, column-addressable view of the raw CSV cells.
// Columns converted by Clean are served from their cleaned values.
type Table struct {
	headers []string
	index   map[string]int
	rows    [][]string
	numeric map[string][]float64
	missing string
}

// Load reads the dataset from cfg.Path, or from cfg.URL when no path is set,
// and assigns cfg.Headers to its columns.
func Load(ctx context.Context, cfg Config) (*Table, error) {
	logger := log.GetLogger().With(log.ComponentKey, "dataset", log.OperationKey, log.OperationLoad)

	var (
		src    io.ReadCloser
		source string
	)
	if cfg.Path != "" {
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening dataset %s", cfg.Path)
		}
		src, source = f, cfg.Path
	} else {
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		body, err := fetch(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		src, source = body, cfg.URL
	}
	defer src.Close()

	t, err := Read(src, cfg.Headers, cfg.MissingMarker)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset %s", source)
	}
	logger.Info("Dataset loaded",
		log.SourceKey, source,
		log.SamplesKey, t.Len(),
		log.FeaturesKey, len(t.headers),
	)
	return t, nil
}

func fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	if url == "" {
		return nil, errors.NewValidationError("dataset.url", "either path or url must be set", url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch dataset")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Newf("failed to fetch dataset: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// Read parses header-less CSV from r. Every record must have one field per
// header.
func Read(r io.Reader, headers []string, missingMarker string) (*Table, error) {
	if len(headers) == 0 {
		return nil, errors.NewValidationError("headers", "at least one column name is required", headers)
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := index[h]; dup {
			return nil, errors.NewValidationError("headers", "duplicate column name", h)
		}
		index[h] = i
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(headers)
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				return nil, errors.NewValidationError("headers",
					fmt.Sprintf("record has a different number of fields than the %d headers: %v", len(headers), err), len(record))
			}
			return nil, errors.Wrap(err, "failed to read CSV record")
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, errors.NewValidationError("dataset", errors.ErrEmptyData.Error(), 0)
	}

	return &Table{
		headers: slices.Clone(headers),
		index:   index,
		rows:    rows,
		numeric: map[string][]float64{},
		missing: missingMarker,
	}, nil
}

// Clean returns a table where each of columns is numeric. Cells that are
// missing or do not parse as numbers are replaced by the mean of the parsed
// cells of that column.
func Clean(t *Table, columns []string) (*Table, error) {
	cleaned := &Table{
		headers: t.headers,
		index:   t.index,
		rows:    t.rows,
		numeric: make(map[string][]float64, len(t.numeric)+len(columns)),
		missing: t.missing,
	}
	for name, values := range t.numeric {
		cleaned.numeric[name] = values
	}

	for _, name := range columns {
		j, ok := t.index[name]
		if !ok {
			return nil, errors.NewValidationError(name, "unknown column", t.headers)
		}

		values := make([]float64, len(t.rows))
		parsed := make([]float64, 0, len(t.rows))
		var bad []int
		for i, row := range t.rows {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
			if err != nil {
				bad = append(bad, i)
				continue
			}
			values[i] = v
			parsed = append(parsed, v)
		}
		if len(parsed) == 0 {
			return nil, errors.NewValidationError(name, "no numeric values to impute from", len(t.rows))
		}
		if len(bad) > 0 {
			mean := stat.Mean(parsed, nil)
			for _, i := range bad {
				values[i] = mean
			}
			errors.Warn(errors.NewDataConversionWarning(name, len(bad), "replaced by column mean"))
		}
		cleaned.numeric[name] = values
	}
	return cleaned, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns the column names in file order.
func (t *Table) Columns() []string {
	return slices.Clone(t.headers)
}

// Column returns the named column as numbers. Columns that were not cleaned
// must parse completely.
func (t *Table) Column(name string) ([]float64, error) {
	if values, ok := t.numeric[name]; ok {
		return slices.Clone(values), nil
	}
	j, ok := t.index[name]
	if !ok {
		return nil, errors.NewValidationError(name, "unknown column", nil)
	}

	values := make([]float64, len(t.rows))
	for i, row := range t.rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
		if err != nil {
			return nil, errors.NewValidationError(name, fmt.Sprintf("non-numeric value at row %d", i), row[j])
		}
		values[i] = v
	}
	return values, nil
}

// Strings returns the raw cells of the named column.
func (t *Table) Strings(name string) ([]string, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, errors.NewValidationError(name, "unknown column", nil)
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Distinct returns the sorted distinct values of the named column, without
// missing markers.
func (t *Table) Distinct(name string) ([]string, error) {
	cells, err := t.Strings(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, c := range cells {
		if c == t.missing || c == "" {
			continue
		}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out, nil
}
