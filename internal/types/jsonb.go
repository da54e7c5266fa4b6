package types

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Compile-time interface assertions.
// Scan is on pointer receivers; Value is on value receivers.
var (
	_ sql.Scanner   = (*SliderValues)(nil)
	_ driver.Valuer = SliderValues{}
	_ sql.Scanner   = (*Metrics)(nil)
	_ driver.Valuer = Metrics{}
)

// scanJSONB is a generic helper that scans a JSONB database value into a Go pointer.
// It handles nil values, []byte, and string representations from different database drivers.
func scanJSONB(dest interface{}, value interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("jsonb: unsupported scan type %T", value)
	}
	return json.Unmarshal(data, dest)
}

// valueJSONB converts a Go value to a JSONB-compatible driver.Value.
func valueJSONB(v interface{}) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Scan implements the sql.Scanner interface for reading JSONB from the database.
func (v *SliderValues) Scan(value interface{}) error {
	return scanJSONB(v, value)
}

// Value implements the driver.Valuer interface for writing JSONB to the database.
func (v SliderValues) Value() (driver.Value, error) {
	return valueJSONB(v)
}

// Scan implements the sql.Scanner interface for reading JSONB from the database.
func (m *Metrics) Scan(value interface{}) error {
	return scanJSONB(m, value)
}

// Value implements the driver.Valuer interface for writing JSONB to the database.
func (m Metrics) Value() (driver.Value, error) {
	return valueJSONB(m)
}
