package models

import (
	"encoding/json"
	"strings"
)

// TagSeparator joins tags in the stored representation.
const TagSeparator = ", "

// TagList is an ordered list of technology tags. In JSON it is an array, but
// a comma-separated string is accepted on input too (older data files).
type TagList []string

// SplitTags parses the stored form: split on commas, trim, drop empties.
// Case is preserved.
func SplitTags(s string) TagList {
	tags := TagList{}
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// String returns the stored form, e.g. "react, node, css".
func (t TagList) String() string {
	clean := make([]string, 0, len(t))
	for _, tag := range t {
		if s := strings.TrimSpace(tag); s != "" {
			clean = append(clean, s)
		}
	}
	return strings.Join(clean, TagSeparator)
}

func (t TagList) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

func (t *TagList) UnmarshalJSON(b []byte) error {
	var asString string
	if err := json.Unmarshal(b, &asString); err == nil {
		*t = SplitTags(asString)
		return nil
	}
	var asList []string
	if err := json.Unmarshal(b, &asList); err != nil {
		return err
	}
	tags := TagList{}
	for _, tag := range asList {
		if s := strings.TrimSpace(tag); s != "" {
			tags = append(tags, s)
		}
	}
	*t = tags
	return nil
}
