// Package importer parses upstream draw result payloads into records.
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/model"
)

// TimeLayout is the upstream openTime format.
const TimeLayout = "2006-01-02 15:04:05"

const successCode = 200

// Item is one upstream result row.
type Item struct {
	Expect   flexString `json:"expect"`
	OpenTime string     `json:"openTime"`
	OpenCode string     `json:"openCode"`
	Zodiac   string     `json:"zodiac"`
}

type envelope struct {
	Code    int    `json:"code"`
	Result  bool   `json:"result"`
	Message string `json:"message"`
	Data    []Item `json:"data"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expect: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// Result holds the parsed records, ascending by period, and the rows that
// were rejected.
type Result struct {
	Records []model.DrawRecord
	Invalid []*RowError
}

// ParseFile parses the payload stored at path.
func ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads either the upstream envelope or a bare array of items.
func Parse(r io.Reader) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	var items []Item
	if bytes.HasPrefix(raw, []byte("[")) {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	} else {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if env.Code != successCode || !env.Result {
			return nil, fmt.Errorf("%w: code %d: %s", ErrUpstream, env.Code, env.Message)
		}
		items = env.Data
	}

	res := &Result{Records: make([]model.DrawRecord, 0, len(items))}
	for i, it := range items {
		rec, err := it.Record()
		if err != nil {
			res.Invalid = append(res.Invalid, &RowError{Index: i, Expect: string(it.Expect), Err: err})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	model.SortByPeriod(res.Records)
	return res, nil
}

// Record converts the row. The special zodiac is taken from the payload
// when present and derived from the draw date otherwise.
func (it Item) Record() (model.DrawRecord, error) {
	period, err := strconv.ParseInt(strings.TrimSpace(string(it.Expect)), 10, 64)
	if err != nil {
		return model.DrawRecord{}, fmt.Errorf("%w: expect: %w", ErrInvalidRow, err)
	}
	date, err := time.Parse(TimeLayout, strings.TrimSpace(it.OpenTime))
	if err != nil {
		return model.DrawRecord{}, fmt.Errorf("%w: openTime: %w", ErrInvalidRow, err)
	}

	codes := strings.Split(it.OpenCode, ",")
	if len(codes) != model.NormalCount+1 {
		return model.DrawRecord{}, fmt.Errorf("%w: openCode has %d numbers", ErrInvalidRow, len(codes))
	}
	var nums [model.NormalCount + 1]int
	for i, c := range codes {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return model.DrawRecord{}, fmt.Errorf("%w: openCode: %w", ErrInvalidRow, err)
		}
		nums[i] = n
	}

	rec := model.DrawRecord{Period: period, Date: date, Special: nums[model.NormalCount]}
	copy(rec.Normals[:], nums[:model.NormalCount])

	if labels := strings.Split(it.Zodiac, ","); len(labels) == model.NormalCount+1 {
		z, err := category.ParseZodiac(labels[model.NormalCount])
		if err != nil {
			return model.DrawRecord{}, fmt.Errorf("%w: %w", ErrInvalidRow, err)
		}
		rec.SpecialZodiac = z
	} else {
		if !category.InPool(rec.Special) {
			return model.DrawRecord{}, fmt.Errorf("%w: special %d out of range", ErrInvalidRow, rec.Special)
		}
		maps := category.Build(category.ReferenceYear(date))
		rec.SpecialZodiac = maps.Zodiac(rec.Special)
	}

	if err := rec.Validate(); err != nil {
		return model.DrawRecord{}, fmt.Errorf("%w: %w", ErrInvalidRow, err)
	}
	return rec, nil
}
