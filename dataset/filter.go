package dataset

import (
	"sort"
)

// All matches every value of a categorical filter.
const All = "All"

// FilterOptions selects cars by price range and category. Empty or "All"
// categories do not constrain. A nil MaxPrice means no upper bound; a zero
// one matches only free cars.
type FilterOptions struct {
	MinPrice  float64  `json:"min_price"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	FuelType  string  `json:"fuel_type"`
	BodyStyle string  `json:"body_style"`
}

// Car is one row of a filter result.
type Car struct {
	Make       string  `json:"make"`
	BodyStyle  string  `json:"body_style"`
	FuelType   string  `json:"fuel_type"`
	EngineSize float64 `json:"engine_size"`
	Horsepower float64 `json:"horsepower"`
	Price      float64 `json:"price"`
}

// Stats counts the cars in a filter result.
type Stats struct {
	Total     int `json:"total"`
	Gas       int `json:"gas"`
	Diesel    int `json:"diesel"`
	Hatchback int `json:"hatchback"`
}

// FilterResult holds matching cars sorted by ascending price.
type FilterResult struct {
	Cars  []Car `json:"cars"`
	Stats Stats `json:"stats"`
}

// Filter returns the cars priced within [MinPrice, MaxPrice] that match the
// fuel type and body style. The table must have price, engine_size and
// horsepower available as numbers, which Clean with the default numeric
// columns ensures.
func Filter(t *Table, opts FilterOptions) (*FilterResult, error) {
	price, err := t.Column("price")
	if err != nil {
		return nil, err
	}
	engine, err := t.Column("engine_size")
	if err != nil {
		return nil, err
	}
	hp, err := t.Column("horsepower")
	if err != nil {
		return nil, err
	}
	makes, err := t.Strings("make")
	if err != nil {
		return nil, err
	}
	fuel, err := t.Strings("fuel_type")
	if err != nil {
		return nil, err
	}
	body, err := t.Strings("body_style")
	if err != nil {
		return nil, err
	}

	res := &FilterResult{Cars: []Car{}}
	for i := 0; i < t.Len(); i++ {
		if price[i] < opts.MinPrice || (opts.MaxPrice != nil && price[i] > *opts.MaxPrice) {
			continue
		}
		if !matches(opts.FuelType, fuel[i]) || !matches(opts.BodyStyle, body[i]) {
			continue
		}
		res.Cars = append(res.Cars, Car{
			Make:       makes[i],
			BodyStyle:  body[i],
			FuelType:   fuel[i],
			EngineSize: engine[i],
			Horsepower: hp[i],
			Price:      price[i],
		})

		res.Stats.Total++
		switch fuel[i] {
		case "gas":
			res.Stats.Gas++
		case "diesel":
			res.Stats.Diesel++
		}
		if body[i] == "hatchback" {
			res.Stats.Hatchback++
		}
	}

	sort.SliceStable(res.Cars, func(a, b int) bool {
		return res.Cars[a].Price < res.Cars[b].Price
	})
	return res, nil
}

func matches(want, got string) bool {
	return want == "" || want == All || want == got
}

// Bound returns a pointer to v, for FilterOptions.MaxPrice.
func Bound(v float64) *float64 {
	return &v
}
