package document

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v2"

	"pricing-engine/internal/errors"
)

// yamlToJSON parses YAML and re-encodes it as JSON
func yamlToJSON(data []byte) ([]byte, error) {
	var x interface{}
	if err := yaml.Unmarshal(data, &x); err != nil {
		return nil, errors.InvalidDocument("invalid YAML", err)
	}

	x, err := stringMaps(x)
	if err != nil {
		return nil, errors.InvalidDocument("invalid YAML", err)
	}

	js, err := json.Marshal(x)
	if err != nil {
		return nil, errors.InvalidDocument("YAML does not map to JSON", err)
	}
	return js, nil
}

// stringMaps recursively converts the map[interface{}]interface{}
// values yaml.v2 produces into map[string]interface{}.
func stringMaps(x interface{}) (interface{}, error) {
	switch vv := x.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, val := range vv {
			s, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v (%T)", k, k)
			}
			v, err := stringMaps(val)
			if err != nil {
				return nil, err
			}
			m[s] = v
		}
		return m, nil
	case []interface{}:
		for i, item := range vv {
			v, err := stringMaps(item)
			if err != nil {
				return nil, err
			}
			vv[i] = v
		}
		return vv, nil
	default:
		return x, nil
	}
}
