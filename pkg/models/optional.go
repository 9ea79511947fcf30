package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Optional is a metric value that is either present (a finite real number) or absent.
// The zero value is absent.
type Optional struct {
	value float64
	valid bool
}

// Present wraps v. NaN and infinite values collapse to Absent.
func Present(v float64) Optional {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Optional{}
	}
	return Optional{value: v, valid: true}
}

// Absent returns the empty Optional
func Absent() Optional {
	return Optional{}
}

// OptionalFromPtr converts a nullable float into an Optional
func OptionalFromPtr(v *float64) Optional {
	if v == nil {
		return Optional{}
	}
	return Present(*v)
}

// IsPresent reports whether a value is held
func (o Optional) IsPresent() bool {
	return o.valid
}

// Get returns the held value and whether it is present
func (o Optional) Get() (float64, bool) {
	return o.value, o.valid
}

// Ptr returns a pointer to a copy of the value, or nil when absent
func (o Optional) Ptr() *float64 {
	if !o.valid {
		return nil
	}
	v := o.value
	return &v
}

// String implements fmt.Stringer
func (o Optional) String() string {
	if !o.valid {
		return "absent"
	}
	return strconv.FormatFloat(o.value, 'f', -1, 64)
}

// MarshalJSON encodes absent values as null
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON accepts a number, null or a quoted number.
// Quoted "NaN" and empty strings decode as absent.
func (o *Optional) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = Optional{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid metric value %s: %w", string(data), err)
		}
		return o.parseText(s)
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid metric value %s: %w", string(data), err)
	}
	*o = Present(v)
	return nil
}

// Scan implements sql.Scanner, NULL maps to absent
func (o *Optional) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*o = Optional{}
	case float64:
		*o = Present(v)
	case float32:
		*o = Present(float64(v))
	case int64:
		*o = Present(float64(v))
	case []byte:
		return o.scanString(string(v))
	case string:
		return o.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Optional", src)
	}
	return nil
}

// ParseOptional reads a textual metric cell
func ParseOptional(s string) (Optional, error) {
	var o Optional
	err := o.parseText(s)
	return o, err
}

// parseText reads a textual cell; empty and NaN cells are absent
func (o *Optional) parseText(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		*o = Optional{}
		return nil
	}
	return o.scanString(s)
}

func (o *Optional) scanString(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot scan %q into Optional: %w", s, err)
	}
	*o = Present(f)
	return nil
}

// Value implements driver.Valuer, absent maps to NULL
func (o Optional) Value() (driver.Value, error) {
	if !o.valid {
		return nil, nil
	}
	return o.value, nil
}
