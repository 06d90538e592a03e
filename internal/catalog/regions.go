package catalog

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/pkg/errors"

	"vantetider/internal"
	"vantetider/internal/util"
)

var ErrUnknownRegion = errors.New("unknown region")

// NationalLabel addresses the country level pages.
const NationalLabel = "Sverige"

const suggestionThreshold = 0.8

// UnknownRegionError carries the closest known label, if any is close enough.
type UnknownRegionError struct {
	Input      string
	Suggestion string
}

func (e *UnknownRegionError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%q is not a valid region id or label (did you mean %q?)", e.Input, e.Suggestion)
	}
	return fmt.Sprintf("%q is not a valid region id or label", e.Input)
}

func (e *UnknownRegionError) Unwrap() error { return ErrUnknownRegion }

// RegionIndex looks regions up by id and by label.
type RegionIndex struct {
	values  []internal.DimensionValue
	byID    map[string]internal.DimensionValue
	byLabel map[string]internal.DimensionValue
}

// NewRegionIndex indexes the allowed values of the region dimension.
func NewRegionIndex(dims []internal.Dimension) (*RegionIndex, error) {
	for _, dim := range dims {
		if dim.ID == "region" {
			return newRegionIndex(dim.Values), nil
		}
	}
	return nil, errors.New("dataset has no region dimension")
}

func newRegionIndex(values []internal.DimensionValue) *RegionIndex {
	idx := &RegionIndex{
		byID:    map[string]internal.DimensionValue{},
		byLabel: map[string]internal.DimensionValue{},
	}
	for _, v := range values {
		idx.values = append(idx.values, v)
		if _, ok := idx.byID[v.ID]; !ok {
			idx.byID[v.ID] = v
		}
		if _, ok := idx.byLabel[v.Label]; !ok {
			idx.byLabel[v.Label] = v
		}
	}
	return idx
}

func (r *RegionIndex) Values() []internal.DimensionValue {
	return append([]internal.DimensionValue(nil), r.values...)
}

func (r *RegionIndex) ByID(id string) (internal.DimensionValue, bool) {
	v, ok := r.byID[id]
	return v, ok
}

func (r *RegionIndex) ByLabel(label string) (internal.DimensionValue, bool) {
	v, ok := r.byLabel[label]
	return v, ok
}

// Resolve accepts a label or an id, labels taking precedence.
func (r *RegionIndex) Resolve(idOrLabel string) (internal.DimensionValue, error) {
	if v, ok := r.byLabel[idOrLabel]; ok {
		return v, nil
	}
	if v, ok := r.byID[idOrLabel]; ok {
		return v, nil
	}
	return internal.DimensionValue{}, &UnknownRegionError{Input: idOrLabel, Suggestion: r.suggest(idOrLabel)}
}

func (r *RegionIndex) suggest(input string) string {
	best, bestScore := "", 0.0
	needle := strings.ToLower(util.FoldDiacritics(input))
	for _, v := range r.values {
		score := matchr.JaroWinkler(needle, strings.ToLower(util.FoldDiacritics(v.Label)), false)
		if score > bestScore {
			best, bestScore = v.Label, score
		}
	}
	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}

// Slug returns the URL segment of a region given by id or label.
func (r *RegionIndex) Slug(idOrLabel string) (string, error) {
	if idOrLabel == "" || idOrLabel == NationalLabel {
		return NationalSlug, nil
	}
	v, err := r.Resolve(idOrLabel)
	if err != nil {
		return "", err
	}
	return RegionSlug(v.Label), nil
}

var slugExceptions = map[string]string{
	"Jamtland-Harjedalens": "Jamtlands",
	"Rikets":               NationalSlug,
	"Alla-landstings":      NationalSlug,
}

// RegionSlug turns a region label into its URL segment:
// "Norrbotten" => "Norrbottens", "Västra Götalandsregionen" =>
// "Vastra-Gotalandsregionen".
func RegionSlug(label string) string {
	slug := util.FoldDiacritics(strings.ReplaceAll(label, " ", "-"))
	if !strings.Contains(slug, "region") {
		slug += "s"
	}
	if exception, ok := slugExceptions[slug]; ok {
		return exception
	}
	return slug
}
