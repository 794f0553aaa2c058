// Package forecast turns OpenWeather responses into the JSON document served
// by the web frontend.
package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-web/internal/weather/providers"
)

// Layouts used in the output document.
const (
	DateLayout     = "02-01-2006"
	DateTimeLayout = "02-01-2006 15:04"

	maxDays        = 5
	maxConcurrency = 8
	unknown        = "Unknown"
)

// Output is the document printed by the fetcher.
type Output struct {
	GeneratedAtUTC string         `json:"generated_at_utc"`
	Current        []Current      `json:"current"`
	Forecasts      []CityForecast `json:"forecasts"`
}

// Current is the current conditions for one city.
type Current struct {
	City        string  `json:"city"`
	TimeLocal   string  `json:"time_local"`
	UTCOffset   string  `json:"utc_offset"`
	TempC       float64 `json:"temp_c"`
	HumidityPct int64   `json:"humidity_pct"`
	Condition   string  `json:"condition"`
}

// CityForecast holds the daily summary for one city.
type CityForecast struct {
	City string `json:"city"`
	Days []Day  `json:"days"`
}

// Day summarizes one local calendar day of forecast steps.
type Day struct {
	Date      string  `json:"date"`
	MinC      float64 `json:"min_c"`
	MaxC      float64 `json:"max_c"`
	Condition string  `json:"condition"`
}

// Source is the upstream API the collector queries.
type Source interface {
	Current(ctx context.Context, city string) (providers.CurrentResponse, error)
	Forecast(ctx context.Context, city string) (providers.ForecastResponse, error)
}

// Collect fetches current conditions and forecasts for every city concurrently.
// Results keep the order of cities; the first failure aborts the whole run.
func Collect(ctx context.Context, src Source, cities []string, units string, now time.Time) (Output, error) {
	current := make([]Current, len(cities))
	forecasts := make([]CityForecast, len(cities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i, city := range cities {
		label := Label(city)
		g.Go(func() error {
			cur, err := src.Current(gctx, city)
			if err != nil {
				return err
			}
			current[i] = BuildCurrent(label, cur, units)
			return nil
		})
		g.Go(func() error {
			fc, err := src.Forecast(gctx, city)
			if err != nil {
				return err
			}
			forecasts[i] = CityForecast{City: label, Days: Summarize(fc, units)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Output{}, fmt.Errorf("collect weather: %w", err)
	}

	return Output{
		GeneratedAtUTC: now.UTC().Format(DateTimeLayout),
		Current:        current,
		Forecasts:      forecasts,
	}, nil
}

// BuildCurrent converts a /weather response into the output record.
func BuildCurrent(label string, cur providers.CurrentResponse, units string) Current {
	local := time.Unix(cur.Dt, 0).In(time.FixedZone("", cur.Timezone))
	return Current{
		City:        label,
		TimeLocal:   local.Format(DateTimeLayout),
		UTCOffset:   UTCOffsetLabel(cur.Timezone),
		TempC:       ToCelsius(cur.Main.Temp, units),
		HumidityPct: cur.Main.Humidity,
		Condition:   firstCondition(cur.Weather),
	}
}

// Summarize groups forecast steps by local date and keeps the first five days.
// Each day reports min/max temperature and the most frequent condition.
func Summarize(fc providers.ForecastResponse, units string) []Day {
	zone := time.FixedZone("", fc.City.Timezone)

	type sample struct {
		temp float64
		cond string
	}
	byDay := make(map[string][]sample)
	var keys []string

	for _, e := range fc.List {
		local := time.Unix(e.Dt, 0).In(zone)
		key := local.Format("2006-01-02")
		if _, ok := byDay[key]; !ok {
			keys = append(keys, key)
		}
		byDay[key] = append(byDay[key], sample{
			temp: ToCelsius(e.Main.Temp, units),
			cond: firstCondition(e.Weather),
		})
	}
	sort.Strings(keys)
	if len(keys) > maxDays {
		keys = keys[:maxDays]
	}

	days := make([]Day, 0, len(keys))
	for _, key := range keys {
		samples := byDay[key]
		minT, maxT := math.Inf(1), math.Inf(-1)
		conds := make([]string, 0, len(samples))
		for _, s := range samples {
			minT = math.Min(minT, s.temp)
			maxT = math.Max(maxT, s.temp)
			conds = append(conds, s.cond)
		}

		date, _ := time.Parse("2006-01-02", key)
		days = append(days, Day{
			Date:      date.Format(DateLayout),
			MinC:      minT,
			MaxC:      maxT,
			Condition: mostCommon(conds),
		})
	}
	return days
}

// mostCommon picks the most frequent value; ties go to the earliest seen.
func mostCommon(values []string) string {
	counts := make(map[string]int, len(values))
	best, bestCount := unknown, 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func firstCondition(items []providers.Condition) string {
	if len(items) == 0 {
		return unknown
	}
	return Title(items[0].Description)
}

// Label returns the display name of a "City,Country" query.
func Label(query string) string {
	city, _, _ := strings.Cut(query, ",")
	return strings.TrimSpace(city)
}

// Title upper-cases the first letter of s.
func Title(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// UTCOffsetLabel formats an offset in seconds as "UTC+2" or "UTC+5:30".
func UTCOffsetLabel(secs int) string {
	sign := '+'
	if secs < 0 {
		sign = '-'
		secs = -secs
	}
	hours := secs / 3600
	mins := (secs % 3600) / 60
	if mins == 0 {
		return fmt.Sprintf("UTC%c%d", sign, hours)
	}
	return fmt.Sprintf("UTC%c%d:%02d", sign, hours, mins)
}

// ToCelsius normalizes a temperature reported in the given OpenWeather units.
// Unknown units are assumed to be metric.
func ToCelsius(v float64, units string) float64 {
	switch units {
	case "imperial":
		return (v - 32) * 5 / 9
	case "standard":
		return v - 273.15
	default:
		return v
	}
}
