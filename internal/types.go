package internal

import (
	"encoding/json"
	"strconv"
	"time"
)

type ValueKind string

const (
	ValueNull     ValueKind = "null"
	ValueNumber   ValueKind = "number"
	ValueSentinel ValueKind = "sentinel"
)

// Missing-value vocabulary as it appears on the site once spaces are removed.
const (
	SentinelDidNotParticipate = "Ejdeltagit"
	SentinelNotApplicable     = "N/A"
	SentinelDash              = "-"
)

// Value is a parsed table cell: a number, a sentinel string or null.
type Value struct {
	Kind     ValueKind
	Number   float64
	Sentinel string
}

func Null() Value { return Value{Kind: ValueNull} }

func Number(v float64) Value { return Value{Kind: ValueNumber, Number: v} }

func Sentinel(s string) Value { return Value{Kind: ValueSentinel, Sentinel: s} }

func (v Value) IsNull() bool { return v.Kind == ValueNull || v.Kind == "" }

func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ValueSentinel:
		return v.Sentinel
	default:
		return ""
	}
}

// Any returns the value as float64, string or nil.
func (v Value) Any() any {
	switch v.Kind {
	case ValueNumber:
		return v.Number
	case ValueSentinel:
		return v.Sentinel
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case float64:
		*v = Number(t)
	case string:
		*v = Sentinel(t)
	default:
		*v = Null()
	}
	return nil
}

// Record is one long-format cell of an extracted table.
type Record struct {
	Row     string  `json:"row"`
	RowID   *string `json:"rowId"`
	Column  string  `json:"column"`
	Value   Value   `json:"value"`
	Measure string  `json:"measure,omitempty"`
}

type Dataset struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type DimensionKind string

const (
	DimensionSelect   DimensionKind = "select"
	DimensionCheckbox DimensionKind = "checkbox"
	DimensionRadio    DimensionKind = "radio"
	DimensionVirtual  DimensionKind = "virtual"
)

type DimensionValue struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Dimension struct {
	ID      string           `json:"id"`
	Label   string           `json:"label,omitempty"`
	ElemID  string           `json:"elemId,omitempty"`
	Kind    DimensionKind    `json:"kind"`
	Default string           `json:"default,omitempty"`
	Values  []DimensionValue `json:"values,omitempty"`
}

// Queryable reports whether the dimension is sent with the search form.
func (d Dimension) Queryable() bool {
	return d.Kind != DimensionVirtual
}

// Observation is a record enriched with the query context it was fetched under.
type Observation struct {
	Dataset    string            `json:"dataset"`
	Region     string            `json:"region"`
	Unit       string            `json:"unit,omitempty"`
	UnitID     string            `json:"unitId,omitempty"`
	Measure    string            `json:"measure"`
	Dimensions map[string]string `json:"dimensions"`
	Value      Value             `json:"value"`
	// Query is the encoded form the page was fetched with.
	Query string `json:"query,omitempty"`
}

// PageEntry indexes one cached response body on disk.
type PageEntry struct {
	Key       string
	Method    string
	URL       string
	Payload   string
	BodyPath  string
	Status    int
	FetchedAt time.Time
}

type RunStats struct {
	Queries      int `json:"queries"`
	Pages        int `json:"pages"`
	Skipped      int `json:"skipped"`
	Observations int `json:"observations"`
}
