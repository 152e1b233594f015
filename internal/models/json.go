package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 网关原始参数，落库为 JSON 文本
type JSON map[string]interface{}

// JSONFromStrings 由回调查询参数构造
func JSONFromStrings(raw map[string]string) JSON {
	out := make(JSON, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}

// Value 空映射落库为 NULL
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(map[string]interface{}(j))
	return string(data), err
}

// Scan 兼容 sqlite 的 TEXT 与 postgres 的 bytea/jsonb
func (j *JSON) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = JSON{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan JSON: unsupported type %T", value)
	}
	if len(raw) == 0 {
		*j = JSON{}
		return nil
	}
	out := JSON{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan JSON: %w", err)
	}
	*j = out
	return nil
}
