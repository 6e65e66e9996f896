package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	metaKey               = "meta"
	currentTagsKey        = "anchore_current_tags"
	allTagsKey            = "anchore_all_tags"
	dockerfileContentsKey = "dockerfile_contents"
	tagHistoryKey         = "tag_history"
)

// ImageIDMetaKey is the meta entry carrying the image identifier.
const ImageIDMetaKey = "imageId"

// ImageReport is the primary per-image document. Only the fields the store
// reasons about are typed; every other top-level field is kept verbatim in Extra
// so that a load followed by a save does not lose data.
type ImageReport struct {
	Meta               map[string]string
	CurrentTags        []string
	AllTags            []string
	DockerfileContents string
	TagHistory         []TagHistoryEntry
	Extra              map[string]json.RawMessage
}

// IsEmpty reports whether the report carries no data at all, which is what
// loading an absent or unreadable report returns.
func (r ImageReport) IsEmpty() bool {
	return r.Meta == nil && r.CurrentTags == nil && r.AllTags == nil &&
		r.DockerfileContents == "" && r.TagHistory == nil && len(r.Extra) == 0
}

// ImageID returns meta.imageId, if any.
func (r ImageReport) ImageID() string {
	return r.Meta[ImageIDMetaKey]
}

func (r ImageReport) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+5)
	for k, v := range r.Extra {
		out[k] = v
	}
	if r.Meta != nil {
		out[metaKey] = r.Meta
	}
	tags := r.CurrentTags
	if tags == nil {
		tags = []string{}
	}
	out[currentTagsKey] = tags
	if r.AllTags != nil {
		out[allTagsKey] = r.AllTags
	}
	if r.DockerfileContents != "" {
		out[dockerfileContentsKey] = r.DockerfileContents
	}
	if r.TagHistory != nil {
		out[tagHistoryKey] = r.TagHistory
	}
	return json.Marshal(out)
}

func (r *ImageReport) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	report := ImageReport{}
	for k, v := range raw {
		var err error
		switch k {
		case metaKey:
			report.Meta, err = decodeFlatMap(v)
		case currentTagsKey:
			report.CurrentTags, err = decodeStrings(v)
		case allTagsKey:
			report.AllTags, err = decodeStrings(v)
		case dockerfileContentsKey:
			err = json.Unmarshal(v, &report.DockerfileContents)
		case tagHistoryKey:
			err = json.Unmarshal(v, &report.TagHistory)
		default:
			if report.Extra == nil {
				report.Extra = map[string]json.RawMessage{}
			}
			report.Extra[k] = v
		}
		if err != nil {
			return fmt.Errorf("image report field %q: %w", k, err)
		}
	}
	*r = report
	return nil
}

// TagHistoryEntry is one archived tag assignment, encoded as [timestamp, [tags...]].
type TagHistoryEntry struct {
	Timestamp string
	Tags      []string
}

func (e TagHistoryEntry) MarshalJSON() ([]byte, error) {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal([]any{e.Timestamp, tags})
}

func (e *TagHistoryEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("tag history entry has %d elements, expected 2", len(pair))
	}
	ts, err := scalarString(pair[0])
	if err != nil {
		return fmt.Errorf("tag history timestamp: %w", err)
	}
	tags, err := decodeStrings(pair[1])
	if err != nil {
		return fmt.Errorf("tag history tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	*e = TagHistoryEntry{Timestamp: ts, Tags: tags}
	return nil
}

func decodeStrings(data json.RawMessage) ([]string, error) {
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeFlatMap reads a JSON object whose values are scalars. Non-string scalars
// keep their JSON text ("42", "true") so that numbers written by other tools survive.
func decodeFlatMap(data json.RawMessage) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		s, err := scalarString(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}

func scalarString(v json.RawMessage) (string, error) {
	if len(v) == 0 {
		return "", fmt.Errorf("empty value")
	}
	switch v[0] {
	case '"':
		var s string
		err := json.Unmarshal(v, &s)
		return s, err
	case '{', '[':
		return "", fmt.Errorf("expected a scalar, got %s", string(v))
	case 'n':
		return "", nil
	}
	if _, err := strconv.ParseFloat(string(v), 64); err != nil && string(v) != "true" && string(v) != "false" {
		return "", fmt.Errorf("unexpected scalar %s", string(v))
	}
	return string(v), nil
}
