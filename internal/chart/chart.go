// Package chart projects per-day request counts into the label and series
// arrays handed to a line chart renderer.
package chart

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/foxzi/listdash/internal/exchange"
)

// Series names, in rendering order
const (
	SeriesModerations   = "Moderation Requests"
	SeriesSubscriptions = "Subscription Requests"
)

// DefaultPadding appends the trailing blank point the dashboard chart expects
const DefaultPadding = true

// Value is a data point: a count or the blank padding value
type Value struct {
	N     int
	Blank bool
}

// Int returns a count value
func Int(n int) Value { return Value{N: n} }

// Blank is the padding value
var Blank = Value{Blank: true}

// MarshalJSON encodes counts as numbers and padding as ""
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Blank {
		return []byte(`""`), nil
	}
	return []byte(strconv.Itoa(v.N)), nil
}

func (v Value) String() string {
	if v.Blank {
		return ""
	}
	return strconv.Itoa(v.N)
}

// Series is a named line of the chart
type Series struct {
	Name string  `json:"name"`
	Data []Value `json:"data"`
}

// Data is the renderer input
type Data struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// Moderations returns the moderation series data
func (d *Data) Moderations() []Value { return d.seriesData(SeriesModerations) }

// Subscriptions returns the subscription series data
func (d *Data) Subscriptions() []Value { return d.seriesData(SeriesSubscriptions) }

func (d *Data) seriesData(name string) []Value {
	for _, s := range d.Series {
		if s.Name == name {
			return s.Data
		}
	}
	return nil
}

// Points returns the number of points without padding
func (d *Data) Points() int {
	n := len(d.Labels)
	if n > 0 && d.Labels[n-1] == "" {
		n--
	}
	return n
}

// Project builds the chart input from a stats response. Dates are the
// union of both series in ascending order; a date missing from one series
// counts as zero there.
func Project(resp *exchange.StatsResponse, pad bool) *Data {
	dates := resp.Dates()
	mods := make([]int, len(dates))
	subs := make([]int, len(dates))
	for i, d := range dates {
		mods[i] = resp.Mods[d]
		subs[i] = resp.Subs[d]
	}
	return build(dates, mods, subs, pad)
}

// FromEmbedded builds the chart input from the comma-separated hidden
// fields of the dashboard page. The result equals Project over the same
// counts.
func FromEmbedded(dates, subsData, modsData string, pad bool) (*Data, error) {
	ds := splitField(dates)
	subs, err := parseCounts(subsData)
	if err != nil {
		return nil, &exchange.MalformedResponse{Reason: "invalid " + exchange.HiddenSubsData, Err: err}
	}
	mods, err := parseCounts(modsData)
	if err != nil {
		return nil, &exchange.MalformedResponse{Reason: "invalid " + exchange.HiddenModsData, Err: err}
	}
	if len(subs) != len(ds) || len(mods) != len(ds) {
		return nil, &exchange.MalformedResponse{
			Reason: "embedded series length mismatch: " +
				strconv.Itoa(len(ds)) + " dates, " + strconv.Itoa(len(subs)) + " subs, " + strconv.Itoa(len(mods)) + " mods",
		}
	}

	// Order by date regardless of how the page listed them
	idx := make([]int, len(ds))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return ds[idx[a]] < ds[idx[b]] })

	sortedDates := make([]string, len(ds))
	sortedMods := make([]int, len(ds))
	sortedSubs := make([]int, len(ds))
	for i, j := range idx {
		sortedDates[i] = ds[j]
		sortedMods[i] = mods[j]
		sortedSubs[i] = subs[j]
	}
	return build(sortedDates, sortedMods, sortedSubs, pad), nil
}

func build(dates []string, mods, subs []int, pad bool) *Data {
	n := len(dates)
	if pad {
		n++
	}
	labels := make([]string, 0, n)
	modVals := make([]Value, 0, n)
	subVals := make([]Value, 0, n)
	for i, d := range dates {
		labels = append(labels, d)
		modVals = append(modVals, Int(mods[i]))
		subVals = append(subVals, Int(subs[i]))
	}
	if pad {
		labels = append(labels, "")
		modVals = append(modVals, Blank)
		subVals = append(subVals, Blank)
	}

	return &Data{
		Labels: labels,
		Series: []Series{
			{Name: SeriesModerations, Data: modVals},
			{Name: SeriesSubscriptions, Data: subVals},
		},
	}
}

func splitField(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseCounts(s string) ([]int, error) {
	parts := splitField(s)
	counts := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("negative count %d", n)
		}
		counts[i] = n
	}
	return counts, nil
}
