package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONDocument stores a JSON object in a jsonb column. It is sent as text so
// pgx does not encode it as bytea.
type JSONDocument []byte

func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	if !json.Valid(d) {
		return nil, fmt.Errorf("JSONDocument: invalid json")
	}
	return string(d), nil
}

func (d *JSONDocument) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = nil
	case string:
		*d = append((*d)[:0], v...)
	case []byte:
		*d = append((*d)[:0], v...)
	default:
		return fmt.Errorf("JSONDocument: unsupported Scan type %T", src)
	}
	return nil
}

// Raw returns the document as a json.RawMessage, "{}" when empty.
func (d JSONDocument) Raw() json.RawMessage {
	if len(d) == 0 {
		return json.RawMessage("{}")
	}
	return json.RawMessage(d)
}
