package store

import (
	"encoding/json"
	"os"
)

// readJSON decodes the JSON file at path into v. ok is false when the file
// does not exist; any other read or decode error is returned.
func readJSON(path string, v any) (bool, error) {
	body, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, err
	}
	return true, nil
}

func unmarshalJSON(line []byte, v any) error {
	return json.Unmarshal(line, v)
}
