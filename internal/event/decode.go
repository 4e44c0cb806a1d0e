package event

import (
	"encoding/json"
	"fmt"
)

// DecodePayload returns the payload as T. In-process publishers hand over
// the struct itself; dead-letter replays hand over raw JSON or a generic map.
func DecodePayload[T any](payload any) (T, error) {
	var out T
	switch p := payload.(type) {
	case T:
		return p, nil
	case *T:
		if p == nil {
			return out, fmt.Errorf("nil %T payload", p)
		}
		return *p, nil
	case json.RawMessage:
		return out, json.Unmarshal(p, &out)
	case []byte:
		return out, json.Unmarshal(p, &out)
	case nil:
		return out, fmt.Errorf("missing payload for %T", out)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return out, err
	}
	return out, json.Unmarshal(raw, &out)
}
