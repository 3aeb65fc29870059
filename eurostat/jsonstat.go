package eurostat

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/aouyang1/go-macroforecast/timedataset"
	"github.com/goccy/go-json"
)

const TimeDimension = "time"

var (
	ErrMalformedDataset = errors.New("malformed json-stat dataset")
	ErrUnknownDimension = errors.New("unknown dimension")
	ErrUnknownCategory  = errors.New("unknown dimension category")
	ErrAmbiguousSlice   = errors.New("dimension with several categories was not fixed")
)

// Category maps category codes to their position and label within a dimension
type Category struct {
	Index map[string]int    `json:"-"`
	Label map[string]string `json:"label"`
}

// UnmarshalJSON accepts the index either as an object of code to position or as an ordered array
// of codes, both of which are valid json-stat.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw struct {
		Index json.RawMessage   `json:"index"`
		Label map[string]string `json:"label"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Label = raw.Label
	c.Index = make(map[string]int)

	idx := bytes.TrimSpace(raw.Index)
	switch {
	case len(idx) == 0:
		// single category dimensions may omit the index and only carry a label
		for code := range raw.Label {
			c.Index[code] = 0
		}
	case idx[0] == '[':
		var codes []string
		if err := json.Unmarshal(idx, &codes); err != nil {
			return err
		}
		for i, code := range codes {
			c.Index[code] = i
		}
	default:
		if err := json.Unmarshal(idx, &c.Index); err != nil {
			return err
		}
	}
	return nil
}

// Codes returns the category codes ordered by position
func (c Category) Codes() []string {
	codes := make([]string, 0, len(c.Index))
	for code := range c.Index {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return c.Index[codes[i]] < c.Index[codes[j]]
	})
	return codes
}

type Dimension struct {
	Label    string   `json:"label"`
	Category Category `json:"category"`
}

// Dataset is a decoded json-stat 2.0 dataset as served by the Eurostat dissemination api.
// Values are stored in row major order over the dimensions listed in ID.
type Dataset struct {
	Label     string               `json:"label"`
	Source    string               `json:"source"`
	Updated   string               `json:"updated"`
	ID        []string             `json:"id"`
	Size      []int                `json:"size"`
	Dimension map[string]Dimension `json:"dimension"`

	values map[int]float64
}

// Decode parses a json-stat dataset. Values may be a dense array with nulls or a sparse object
// keyed by the flat index.
func Decode(data []byte) (*Dataset, error) {
	var raw struct {
		Dataset
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unable to decode json-stat, %w", err)
	}
	ds := raw.Dataset
	if len(ds.ID) == 0 || len(ds.ID) != len(ds.Size) {
		return nil, fmt.Errorf("got %d dimension ids and %d sizes, %w", len(ds.ID), len(ds.Size), ErrMalformedDataset)
	}
	for i, id := range ds.ID {
		dim, ok := ds.Dimension[id]
		if !ok {
			return nil, fmt.Errorf("dimension %s is not described, %w", id, ErrMalformedDataset)
		}
		if len(dim.Category.Index) != ds.Size[i] {
			return nil, fmt.Errorf("dimension %s has %d categories but size %d, %w", id, len(dim.Category.Index), ds.Size[i], ErrMalformedDataset)
		}
	}

	ds.values = make(map[int]float64)
	val := bytes.TrimSpace(raw.Value)
	switch {
	case len(val) == 0 || bytes.Equal(val, []byte("null")):
	case val[0] == '[':
		var dense []*float64
		if err := json.Unmarshal(val, &dense); err != nil {
			return nil, fmt.Errorf("unable to decode dense values, %w", err)
		}
		for i, v := range dense {
			if v != nil {
				ds.values[i] = *v
			}
		}
	default:
		var sparse map[string]*float64
		if err := json.Unmarshal(val, &sparse); err != nil {
			return nil, fmt.Errorf("unable to decode sparse values, %w", err)
		}
		for k, v := range sparse {
			i, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("value key %q is not an index, %w", k, ErrMalformedDataset)
			}
			if v != nil {
				ds.values[i] = *v
			}
		}
	}
	return &ds, nil
}

// Len is the number of non-missing values
func (d *Dataset) Len() int {
	return len(d.values)
}

// Categories returns the codes of a dimension ordered by position
func (d *Dataset) Categories(dim string) ([]string, error) {
	dimension, ok := d.Dimension[dim]
	if !ok {
		return nil, fmt.Errorf("%s, %w", dim, ErrUnknownDimension)
	}
	return dimension.Category.Codes(), nil
}

// Observations slices the dataset along the time dimension. Every other dimension must either be
// fixed to a category code or have a single category. Positions without a value are returned as
// missing observations so callers see gaps explicitly.
func (d *Dataset) Observations(fixed map[string]string) ([]timedataset.Observation, error) {
	for dim := range fixed {
		if _, ok := d.Dimension[dim]; !ok {
			return nil, fmt.Errorf("%s, %w", dim, ErrUnknownDimension)
		}
	}

	timePos := -1
	strides := make([]int, len(d.ID))
	stride := 1
	for i := len(d.ID) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= d.Size[i]
	}

	base := 0
	for i, id := range d.ID {
		if id == TimeDimension {
			timePos = i
			continue
		}
		cat := d.Dimension[id].Category
		code, ok := fixed[id]
		if !ok {
			if d.Size[i] != 1 {
				return nil, fmt.Errorf("%s, %w", id, ErrAmbiguousSlice)
			}
			continue
		}
		pos, ok := cat.Index[code]
		if !ok {
			return nil, fmt.Errorf("%s=%s, %w", id, code, ErrUnknownCategory)
		}
		base += pos * strides[i]
	}
	if timePos < 0 {
		return nil, fmt.Errorf("no %s dimension, %w", TimeDimension, ErrUnknownDimension)
	}

	timeCat := d.Dimension[TimeDimension].Category
	obs := make([]timedataset.Observation, 0, d.Size[timePos])
	for _, code := range timeCat.Codes() {
		t, err := timedataset.ParseMonth(code)
		if err != nil {
			return nil, fmt.Errorf("unable to parse time code %q, %w", code, err)
		}
		idx := base + timeCat.Index[code]*strides[timePos]
		if v, ok := d.values[idx]; ok {
			obs = append(obs, timedataset.NewObservation(t, v))
			continue
		}
		obs = append(obs, timedataset.Missing(t))
	}
	return obs, nil
}
