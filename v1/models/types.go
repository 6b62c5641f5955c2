package models

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringSlice handles JWT claims that arrive either as a JSON
// string or as a JSON array of strings, depending on the IdP.
type FlexibleStringSlice []string

// UnmarshalJSON implements custom unmarshaling to handle both string and []string
func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var strArray []string
	if err := json.Unmarshal(data, &strArray); err == nil {
		*f = FlexibleStringSlice(strArray)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*f = FlexibleStringSlice([]string{str})
		return nil
	}

	return fmt.Errorf("failed to unmarshal FlexibleStringSlice from: %s", string(data))
}

// ToStringSlice returns the underlying string slice
func (f FlexibleStringSlice) ToStringSlice() []string {
	return []string(f)
}
