package events

import (
	"encoding/json"
	"fmt"
)

// Marshal encodes an event as a single JSON object carrying its variant
// in the "type" field.
func Marshal(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", e.Type(), err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", e.Type(), err)
	}

	tag, err := json.Marshal(e.Type())
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", e.Type(), err)
	}
	fields["type"] = tag

	return json.Marshal(fields)
}

// Unmarshal decodes a tagged JSON object into its concrete variant.
func Unmarshal(data []byte) (Event, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}

	switch head.Type {
	case TypeGithubRefresh:
		var e GithubRefresh
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s event: %w", head.Type, err)
		}
		return e, nil
	case TypeStartService:
		var e StartService
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s event: %w", head.Type, err)
		}
		return e, nil
	case TypeStopService:
		var e StopService
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s event: %w", head.Type, err)
		}
		return e, nil
	case TypeError:
		var e Error
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s event: %w", head.Type, err)
		}
		return e, nil
	case TypeGithubState:
		var e GithubState
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s event: %w", head.Type, err)
		}
		return e, nil
	case TypeServiceState:
		var e ServiceState
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s event: %w", head.Type, err)
		}
		return e, nil
	case TypeExecutablesState:
		var e ExecutablesState
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s event: %w", head.Type, err)
		}
		return e, nil
	case TypeMemoryState:
		var e MemoryState
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s event: %w", head.Type, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", head.Type)
	}
}
