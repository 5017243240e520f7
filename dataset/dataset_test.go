package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePath = "testdata/autos_sample.data"

func loadSample(t *testing.T) *Table {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = samplePath
	table, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	return table
}

func cleanSample(t *testing.T) *Table {
	t.Helper()
	prev := errors.SetWarningHandler(nil)
	defer errors.SetWarningHandler(prev)
	cleaned, err := Clean(loadSample(t), DefaultNumericColumns)
	require.NoError(t, err)
	return cleaned
}

func TestLoadFromFile(t *testing.T) {
	table := loadSample(t)

	assert.Equal(t, 20, table.Len())
	assert.Equal(t, DefaultHeaders, table.Columns())

	makes, err := table.Strings("make")
	require.NoError(t, err)
	assert.Equal(t, "alfa-romero", makes[0])

	wheelBase, err := table.Column("wheel_base")
	require.NoError(t, err)
	assert.InDelta(t, 88.6, wheelBase[0], 1e-9)
}

func TestLoadFromURL(t *testing.T) {
	data, err := os.ReadFile(samplePath)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	table, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 20, table.Len())
}

func TestLoadFromURLBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	_, err := Load(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestReadValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		headers []string
	}{
		{"field count mismatch", "1,2,3\n4,5,6\n", []string{"a", "b"}},
		{"no rows", "", []string{"a"}},
		{"no headers", "1\n", nil},
		{"duplicate headers", "1,2\n", []string{"a", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.headers, "?")
			require.Error(t, err)
			assert.Equal(t, errors.KindInvalidInput, errors.Kind(err))
		})
	}
}

func TestColumnRejectsNonNumeric(t *testing.T) {
	table := loadSample(t)

	_, err := table.Column("horsepower")
	assert.Equal(t, errors.KindInvalidInput, errors.Kind(err))

	_, err = table.Column("no_such_column")
	assert.Equal(t, errors.KindInvalidInput, errors.Kind(err))
}

func TestCleanImputesColumnMean(t *testing.T) {
	var (
		mu       sync.Mutex
		warnings []error
	)
	prev := errors.SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, w)
	})
	defer errors.SetWarningHandler(prev)

	raw := loadSample(t)
	table, err := Clean(raw, DefaultNumericColumns)
	require.NoError(t, err)

	price, err := table.Column("price")
	require.NoError(t, err)
	// mean of the 19 parsed prices
	assert.InDelta(t, 15113.315789473685, price[9], 1e-6)
	assert.Equal(t, 13495.0, price[0])

	losses, err := table.Column("normalized_losses")
	require.NoError(t, err)
	assert.Len(t, losses, 20)

	var lossWarning *errors.DataConversionWarning
	for _, w := range warnings {
		var dc *errors.DataConversionWarning
		if errors.As(w, &dc) && dc.Column == "normalized_losses" {
			lossWarning = dc
		}
	}
	require.NotNil(t, lossWarning)
	assert.Equal(t, 9, lossWarning.Replaced)

	// the raw table is unchanged
	_, err = raw.Column("price")
	assert.Error(t, err)
}

func TestCleanUnknownColumn(t *testing.T) {
	_, err := Clean(loadSample(t), []string{"colour"})
	assert.Equal(t, errors.KindInvalidInput, errors.Kind(err))
}

func TestDistinct(t *testing.T) {
	table := loadSample(t)

	fuel, err := table.Distinct("fuel_type")
	require.NoError(t, err)
	assert.Equal(t, []string{"diesel", "gas"}, fuel)

	doors, err := table.Distinct("num_doors")
	require.NoError(t, err)
	assert.Equal(t, []string{"four", "two"}, doors)
}

func TestFilter(t *testing.T) {
	table := cleanSample(t)

	res, err := Filter(table, FilterOptions{MinPrice: 5000, MaxPrice: Bound(20000), FuelType: All, BodyStyle: All})
	require.NoError(t, err)

	assert.Equal(t, Stats{Total: 17, Gas: 16, Diesel: 1, Hatchback: 5}, res.Stats)
	require.Len(t, res.Cars, 17)
	assert.Equal(t, 5151.0, res.Cars[0].Price)
	assert.Equal(t, "chevrolet", res.Cars[0].Make)
	for i := 1; i < len(res.Cars); i++ {
		assert.LessOrEqual(t, res.Cars[i-1].Price, res.Cars[i].Price)
	}
}

func TestFilterByCategory(t *testing.T) {
	table := cleanSample(t)

	res, err := Filter(table, FilterOptions{FuelType: "diesel"})
	require.NoError(t, err)

	require.Len(t, res.Cars, 3)
	assert.Equal(t, []string{"mazda", "volvo", "mercedes-benz"},
		[]string{res.Cars[0].Make, res.Cars[1].Make, res.Cars[2].Make})
	assert.Equal(t, 3, res.Stats.Diesel)
	assert.Equal(t, 0, res.Stats.Gas)

	res, err = Filter(table, FilterOptions{BodyStyle: "convertible", MaxPrice: Bound(14000)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Total)
}

func TestFilterMaxPriceBound(t *testing.T) {
	table := cleanSample(t)

	res, err := Filter(table, FilterOptions{MaxPrice: Bound(0)})
	require.NoError(t, err)
	assert.Empty(t, res.Cars)
	assert.Equal(t, Stats{}, res.Stats)

	res, err = Filter(table, FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, table.Len(), res.Stats.Total)
}
