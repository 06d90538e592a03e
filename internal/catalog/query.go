package catalog

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/pkg/errors"

	"vantetider/internal"
)

// Dimensions the site only lets you choose through an ajax widget.
var notImplementedDimensions = []string{"unit", "services"}

// Payload is one result page request.
type Payload struct {
	Form url.Values
	// Region is the label of the queried region, used to build the URL.
	Region string
}

// Key identifies the payload in storage.
func (p Payload) Key() string { return p.Form.Encode() }

// Plan is the cartesian product of a query.
type Plan struct {
	Payloads []Payload
	// OnlyRegion pages are fetched with GET; the region is in the URL.
	OnlyRegion bool
}

// BuildQueries expands query (dimension id to requested values) into one
// payload per value combination. Dimensions missing from the query take
// their default value. The first dimension varies slowest.
func BuildQueries(dims []internal.Dimension, query map[string][]string) (Plan, error) {
	for _, id := range notImplementedDimensions {
		if _, ok := query[id]; ok {
			return Plan{}, errors.Wrapf(ErrNotImplementedDimension, "%s", id)
		}
	}

	regions, err := NewRegionIndex(dims)
	if err != nil {
		return Plan{}, err
	}

	known := map[string]internal.Dimension{}
	for _, dim := range dims {
		known[dim.ID] = dim
	}
	for id := range query {
		dim, ok := known[id]
		if !ok {
			return Plan{}, fmt.Errorf("unknown dimension %q", id)
		}
		if !dim.Queryable() {
			return Plan{}, fmt.Errorf("dimension %q cannot be queried", id)
		}
	}

	var keys []string
	var lists [][]string
	regionPos := -1
	for _, dim := range dims {
		if !dim.Queryable() {
			continue
		}
		if dim.ID == "region" {
			regionPos = len(keys)
		}
		values, ok := query[dim.ID]
		if !ok || len(values) == 0 {
			values = []string{dim.Default}
		}
		resolved := make([]string, 0, len(values))
		for _, v := range values {
			if dim.ID == "region" {
				region, err := regions.Resolve(v)
				if err != nil {
					return Plan{}, err
				}
				resolved = append(resolved, region.ID)
				continue
			}
			resolved = append(resolved, resolveValue(dim, v))
		}
		keys = append(keys, dim.ElemID)
		lists = append(lists, resolved)
	}

	plan := Plan{OnlyRegion: len(query) == 1 && query["region"] != nil}
	for _, combo := range product(lists) {
		form := url.Values{}
		var regionLabel string
		for i, key := range keys {
			form.Set(key, combo[i])
		}
		if regionPos >= 0 {
			if region, ok := regions.ByID(combo[regionPos]); ok {
				regionLabel = region.Label
			}
		}
		plan.Payloads = append(plan.Payloads, Payload{Form: form, Region: regionLabel})
	}
	return plan, nil
}

// resolveValue maps a label to its id when the dimension lists it.
func resolveValue(dim internal.Dimension, v string) string {
	if slices.ContainsFunc(dim.Values, func(dv internal.DimensionValue) bool { return dv.ID == v }) {
		return v
	}
	for _, dv := range dim.Values {
		if dv.Label == v {
			return dv.ID
		}
	}
	return v
}

func product(lists [][]string) [][]string {
	out := [][]string{{}}
	for _, list := range lists {
		next := make([][]string, 0, len(out)*len(list))
		for _, prefix := range out {
			for _, v := range list {
				combo := append(append([]string(nil), prefix...), v)
				next = append(next, combo)
			}
		}
		out = next
	}
	return out
}
