package simulation

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spear/financial-simulator/internal/domain"
)

// ReturnSeries is one growth category's annual return history, the
// reference data the historical growth sampler draws from.
type ReturnSeries struct {
	Category string
	Source   string
	MinYear  int
	MaxYear  int
	Returns  []decimal.Decimal
	Mean     decimal.Decimal
	StdDev   decimal.Decimal
}

// HistoricalData manages the return series for every known growth
// category. It ships with compiled-in defaults and can be refreshed from
// external CSV files via LoadCSV.
type HistoricalData struct {
	series map[string]*ReturnSeries
}

// Annual total returns, 1994-2023.
var defaultSeries = []struct {
	category string
	source   string
	minYear  int
	returns  []float64
}{
	{
		category: "stocks",
		source:   "S&P 500 total return",
		minYear:  1994,
		returns: []float64{
			0.0132, 0.3758, 0.2296, 0.3336, 0.2858, 0.2104,
			-0.0910, -0.1189, -0.2210, 0.2868, 0.1088, 0.0491,
			0.1579, 0.0549, -0.3700, 0.2646, 0.1506, 0.0211,
			0.1600, 0.3239, 0.1369, 0.0138, 0.1196, 0.2183,
			-0.0438, 0.3149, 0.1840, 0.2871, -0.1811, 0.2629,
		},
	},
	{
		category: "bonds",
		source:   "Bloomberg US Aggregate",
		minYear:  1994,
		returns: []float64{
			-0.0292, 0.1847, 0.0363, 0.0965, 0.0869, -0.0082,
			0.1163, 0.0844, 0.1026, 0.0410, 0.0434, 0.0243,
			0.0433, 0.0697, 0.0524, 0.0593, 0.0654, 0.0784,
			0.0421, -0.0202, 0.0597, 0.0055, 0.0265, 0.0354,
			0.0001, 0.0872, 0.0751, -0.0154, -0.1301, 0.0553,
		},
	},
	{
		category: "cash",
		source:   "3-month Treasury bill",
		minYear:  1994,
		returns: []float64{
			0.0390, 0.0560, 0.0521, 0.0526, 0.0486, 0.0468,
			0.0589, 0.0383, 0.0165, 0.0102, 0.0120, 0.0298,
			0.0480, 0.0466, 0.0160, 0.0010, 0.0012, 0.0004,
			0.0006, 0.0003, 0.0003, 0.0005, 0.0021, 0.0080,
			0.0181, 0.0214, 0.0037, 0.0004, 0.0202, 0.0507,
		},
	},
}

// DefaultHistoricalData returns the compiled-in return series.
func DefaultHistoricalData() *HistoricalData {
	h := &HistoricalData{series: make(map[string]*ReturnSeries)}
	for _, s := range defaultSeries {
		h.series[s.category] = newReturnSeries(s.category, s.source, s.minYear, s.returns)
	}
	return h
}

func newReturnSeries(category, source string, minYear int, returns []float64) *ReturnSeries {
	values := make([]decimal.Decimal, len(returns))
	for i, r := range returns {
		values[i] = decimal.NewFromFloat(r)
	}
	mean, stdDev := seriesStats(returns)
	return &ReturnSeries{
		Category: category,
		Source:   source,
		MinYear:  minYear,
		MaxYear:  minYear + len(returns) - 1,
		Returns:  values,
		Mean:     decimal.NewFromFloat(mean),
		StdDev:   decimal.NewFromFloat(stdDev),
	}
}

func seriesStats(returns []float64) (mean, stdDev float64) {
	if len(returns) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean = sum / float64(len(returns))
	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	return mean, math.Sqrt(sq / float64(len(returns)))
}

// Series returns the data for a growth category, or a ConfigError for an
// unknown one.
func (h *HistoricalData) Series(category string) (*ReturnSeries, error) {
	s, ok := h.series[category]
	if !ok {
		return nil, domain.Configf("unknown growth category %q (have: %s)",
			category, strings.Join(h.Categories(), ", "))
	}
	return s, nil
}

// Categories lists the known growth categories, sorted.
func (h *HistoricalData) Categories() []string {
	out := make([]string, 0, len(h.series))
	for c := range h.series {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// LoadCSV replaces or adds series from CSV files in dir. Each file is one
// category named after its base name (stocks.csv, bonds.csv, ...), with a
// header row and year,return rows.
func (h *HistoricalData) LoadCSV(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read historical data dir %s: %w", dir, err)
	}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		category := strings.TrimSuffix(e.Name(), ".csv")
		s, err := loadSeriesCSV(filepath.Join(dir, e.Name()), category)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", e.Name(), err)
		}
		h.series[category] = s
		loaded++
	}
	if loaded == 0 {
		return fmt.Errorf("no CSV series found in %s", dir)
	}
	return nil
}

func loadSeriesCSV(path, category string) (*ReturnSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var returns []float64
	minYear := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data row: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			continue
		}
		if minYear == 0 {
			minYear = year
		}
		returns = append(returns, value)
	}
	if len(returns) == 0 {
		return nil, fmt.Errorf("no valid data points in %s", path)
	}
	return newReturnSeries(category, path, minYear, returns), nil
}
