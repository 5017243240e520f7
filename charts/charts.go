// Package charts renders the dashboard's exploratory charts with gonum/plot.
package charts

import (
	"image/color"
	"io"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Kind identifies a chart.
type Kind string

// Available charts, in dashboard order.
const (
	PriceDistribution  Kind = "price_distribution"
	CorrelationHeatmap Kind = "correlation_heatmap"
	FuelTypeVsPrice    Kind = "fuel_type_vs_price"
	TopMakesByPrice    Kind = "top_makes_by_price"
	HorsepowerVsPrice  Kind = "horsepower_vs_price"
	EngineSizeVsPrice  Kind = "engine_size_vs_price"
	BodyStyleVsPrice   Kind = "body_style_vs_price"
	DriveWheelsVsPrice Kind = "drive_wheels_vs_price"
	MakeVsPrice        Kind = "make_vs_price"
)

var titles = map[Kind]string{
	PriceDistribution:  "Price Distribution",
	CorrelationHeatmap: "Correlation Heatmap",
	FuelTypeVsPrice:    "Fuel Type vs Price",
	TopMakesByPrice:    "Top 10 Car Makes by Avg Price",
	HorsepowerVsPrice:  "Horsepower vs Price",
	EngineSizeVsPrice:  "Engine Size vs Price",
	BodyStyleVsPrice:   "Body Style vs Price",
	DriveWheelsVsPrice: "Drive Type vs Price",
	MakeVsPrice:        "Make vs Price",
}

// Kinds returns every chart kind in dashboard order.
func Kinds() []Kind {
	return []Kind{
		PriceDistribution, CorrelationHeatmap, FuelTypeVsPrice, TopMakesByPrice,
		HorsepowerVsPrice, EngineSizeVsPrice, BodyStyleVsPrice, DriveWheelsVsPrice, MakeVsPrice,
	}
}

// Title returns the display name of k.
func (k Kind) Title() string {
	if t, ok := titles[k]; ok {
		return t
	}
	return titles[PriceDistribution]
}

// Output formats accepted by Render.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Source provides the table columns the charts read.
type Source interface {
	Column(name string) ([]float64, error)
	Strings(name string) ([]string, error)
}

// oranges is a light-to-dark orange ramp used for every chart.
var oranges = []color.Color{
	color.RGBA{R: 0xfd, G: 0xd0, B: 0xa2, A: 0xff},
	color.RGBA{R: 0xfd, G: 0xae, B: 0x6b, A: 0xff},
	color.RGBA{R: 0xfd, G: 0x8d, B: 0x3c, A: 0xff},
	color.RGBA{R: 0xf1, G: 0x69, B: 0x13, A: 0xff},
	color.RGBA{R: 0xd9, G: 0x48, B: 0x01, A: 0xff},
	color.RGBA{R: 0xa6, G: 0x36, B: 0x03, A: 0xff},
	color.RGBA{R: 0x7f, G: 0x27, B: 0x04, A: 0xff},
}

type orangePalette struct{}

func (orangePalette) Colors() []color.Color { return oranges }

var _ palette.Palette = orangePalette{}

func shade(i, n int) color.Color {
	if n <= 1 {
		return oranges[len(oranges)/2]
	}
	return oranges[i*(len(oranges)-1)/(n-1)]
}

// Render draws chart kind from src to w in the given format. features are
// the model inputs shown by the correlation heatmap. An unknown kind renders
// the price distribution.
func Render(w io.Writer, src Source, features []string, kind Kind, format string) error {
	format = strings.ToLower(format)
	if format == "" {
		format = FormatPNG
	}
	if format != FormatPNG && format != FormatSVG {
		return errors.NewValidationError("format", "must be png or svg", format)
	}

	var (
		p         *plot.Plot
		width     = 8 * vg.Inch
		height    = 5 * vg.Inch
		renderErr error
	)
	switch kind {
	case CorrelationHeatmap:
		p, renderErr = correlationHeatmap(src, features)
		width, height = 10*vg.Inch, 8*vg.Inch
	case FuelTypeVsPrice:
		p, renderErr = priceBoxes(src, "fuel_type", "Fuel Type vs Price", false)
		width = 7 * vg.Inch
	case TopMakesByPrice:
		p, renderErr = topMakes(src, 10)
		width = 9 * vg.Inch
	case HorsepowerVsPrice:
		p, renderErr = scatterByGroup(src, "horsepower", "fuel_type", "Horsepower vs Price", true)
	case EngineSizeVsPrice:
		p, renderErr = scatterByGroup(src, "engine_size", "make", "Engine Size vs Price", false)
	case BodyStyleVsPrice:
		p, renderErr = priceBoxes(src, "body_style", "Body Style vs Price", false)
		width = 7 * vg.Inch
	case DriveWheelsVsPrice:
		p, renderErr = priceBoxes(src, "drive_wheels", "Drive Wheels vs Price", false)
		width = 7 * vg.Inch
	case MakeVsPrice:
		p, renderErr = priceBoxes(src, "make", "Car Make vs Price", true)
		width = 10 * vg.Inch
	default:
		p, renderErr = priceDistribution(src)
	}
	if renderErr != nil {
		return renderErr
	}

	return errors.SafeExecute("charts.Render", func() error {
		wt, err := p.WriterTo(width, height, format)
		if err != nil {
			return errors.Wrapf(err, "rendering %s", kind.Title())
		}
		_, err = wt.WriteTo(w)
		return err
	})
}

func priceDistribution(src Source) (*plot.Plot, error) {
	price, err := src.Column("price")
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = "Car Price Distribution"
	p.X.Label.Text = "price"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(price), 30)
	if err != nil {
		return nil, errors.Wrap(err, "price histogram")
	}
	h.FillColor = oranges[2]
	p.Add(h)
	return p, nil
}

// corrGrid is a symmetric correlation matrix laid out on integer coordinates.
type corrGrid struct {
	n int
	z []float64
}

func (g corrGrid) Dims() (c, r int)   { return g.n, g.n }
func (g corrGrid) Z(c, r int) float64 { return g.z[r*g.n+c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

func correlationHeatmap(src Source, features []string) (*plot.Plot, error) {
	names := append(slices.Clone(features), "price")
	cols := make([][]float64, len(names))
	for i, name := range names {
		col, err := src.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	n := len(names)
	grid := corrGrid{n: n, z: make([]float64, n*n)}
	labels := plotter.XYLabels{XYs: make(plotter.XYs, 0, n*n), Labels: make([]string, 0, n*n)}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := stat.Correlation(cols[c], cols[r], nil)
			grid.z[r*n+c] = v
			labels.XYs = append(labels.XYs, plotter.XY{X: float64(c), Y: float64(r)})
			labels.Labels = append(labels.Labels, formatCorr(v))
		}
	}

	p := plot.New()
	p.Title.Text = "Feature Correlation Heatmap"

	hm := plotter.NewHeatMap(grid, orangePalette{})
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 0xcc}
	p.Add(hm)

	annotations, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, errors.Wrap(err, "heatmap annotations")
	}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = draw.XCenter
		annotations.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(annotations)

	p.NominalX(names...)
	p.NominalY(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	return p, nil
}

func formatCorr(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

type group struct {
	name   string
	values []float64
}

// groupPrices splits price by the categorical column, in sorted category order.
func groupPrices(src Source, by string) ([]group, error) {
	price, err := src.Column("price")
	if err != nil {
		return nil, err
	}
	cats, err := src.Strings(by)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	var groups []group
	for i, c := range cats {
		j, ok := index[c]
		if !ok {
			j = len(groups)
			index[c] = j
			groups = append(groups, group{name: c})
		}
		groups[j].values = append(groups[j].values, price[i])
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].name < groups[b].name })
	return groups, nil
}

func priceBoxes(src Source, by, title string, rotate bool) (*plot.Plot, error) {
	groups, err := groupPrices(src, by)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = by
	p.Y.Label.Text = "price"

	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.name
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(g.values))
		if err != nil {
			return nil, errors.Wrapf(err, "box plot for %s=%s", by, g.name)
		}
		box.FillColor = shade(i, len(groups))
		p.Add(box)
	}
	p.NominalX(names...)
	if rotate {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	return p, nil
}

func topMakes(src Source, limit int) (*plot.Plot, error) {
	groups, err := groupPrices(src, "make")
	if err != nil {
		return nil, err
	}

	type avg struct {
		name string
		mean float64
	}
	avgs := make([]avg, len(groups))
	for i, g := range groups {
		avgs[i] = avg{name: g.name, mean: stat.Mean(g.values, nil)}
	}
	sort.SliceStable(avgs, func(a, b int) bool { return avgs[a].mean > avgs[b].mean })
	if len(avgs) > limit {
		avgs = avgs[:limit]
	}
	// highest average at the top
	slices.Reverse(avgs)

	values := make(plotter.Values, len(avgs))
	names := make([]string, len(avgs))
	for i, a := range avgs {
		values[i] = a.mean
		names[i] = a.name
	}

	p := plot.New()
	p.Title.Text = "Top 10 Car Makes by Average Price"
	p.X.Label.Text = "average price"

	bars, err := plotter.NewBarChart(values, vg.Points(15))
	if err != nil {
		return nil, errors.Wrap(err, "average price bars")
	}
	bars.Horizontal = true
	bars.Color = oranges[3]
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

func scatterByGroup(src Source, x, by, title string, legend bool) (*plot.Plot, error) {
	xs, err := src.Column(x)
	if err != nil {
		return nil, err
	}
	price, err := src.Column("price")
	if err != nil {
		return nil, err
	}
	cats, err := src.Strings(by)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	var (
		names  []string
		points []plotter.XYs
	)
	for i, c := range cats {
		j, ok := index[c]
		if !ok {
			j = len(names)
			index[c] = j
			names = append(names, c)
			points = append(points, nil)
		}
		points[j] = append(points[j], plotter.XY{X: xs[i], Y: price[i]})
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = "price"

	for j, pts := range points {
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "scatter for %s=%s", by, names[j])
		}
		s.GlyphStyle.Color = shade(j, len(points))
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		if legend {
			p.Legend.Add(names[j], s)
		}
	}
	if legend {
		p.Legend.Top = true
	}
	return p, nil
}
