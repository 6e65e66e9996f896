package domain

import (
	"encoding/json"
	"testing"

	"github.com/kinbiko/jsonassert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageReport_RoundTripKeepsUnknownFields(t *testing.T) {
	in := `{
		"meta": {"imageId": "abc", "sizebytes": 1024},
		"anchore_current_tags": ["nginx:latest"],
		"anchore_all_tags": ["nginx:1.25"],
		"dockerfile_contents": "FROM scratch",
		"tag_history": [["1700000000", ["nginx:1.25"]]],
		"familytree": ["abc"],
		"layers": [{"id": "l1"}]
	}`
	var report ImageReport
	require.NoError(t, json.Unmarshal([]byte(in), &report))
	assert.Equal(t, "abc", report.ImageID())
	assert.Equal(t, "1024", report.Meta["sizebytes"])
	assert.Equal(t, []string{"nginx:latest"}, report.CurrentTags)
	assert.Equal(t, []TagHistoryEntry{{Timestamp: "1700000000", Tags: []string{"nginx:1.25"}}}, report.TagHistory)
	assert.Len(t, report.Extra, 2)

	out, err := json.Marshal(report)
	require.NoError(t, err)
	jsonassert.New(t).Assertf(string(out), `{
		"meta": {"imageId": "abc", "sizebytes": "1024"},
		"anchore_current_tags": ["nginx:latest"],
		"anchore_all_tags": ["nginx:1.25"],
		"dockerfile_contents": "FROM scratch",
		"tag_history": [["1700000000", ["nginx:1.25"]]],
		"familytree": ["abc"],
		"layers": [{"id": "l1"}]
	}`)
}

func TestImageReport_AbsentTags(t *testing.T) {
	var report ImageReport
	require.NoError(t, json.Unmarshal([]byte(`{"meta": {"imageId": "abc"}}`), &report))
	assert.Nil(t, report.CurrentTags)
	assert.False(t, report.IsEmpty())
	assert.True(t, ImageReport{}.IsEmpty())

	out, err := json.Marshal(ImageReport{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"anchore_current_tags": []}`, string(out))
}

func TestTagHistoryEntry_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    TagHistoryEntry
		wantErr bool
	}{
		{name: "string timestamp", in: `["17", ["a", "b"]]`, want: TagHistoryEntry{"17", []string{"a", "b"}}},
		{name: "numeric timestamp", in: `[17, []]`, want: TagHistoryEntry{"17", []string{}}},
		{name: "null tags", in: `["17", null]`, want: TagHistoryEntry{"17", []string{}}},
		{name: "too short", in: `["17"]`, wantErr: true},
		{name: "not a list", in: `{"ts": "17"}`, wantErr: true},
		{name: "object timestamp", in: `[{}, []]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TagHistoryEntry
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImageReport_MalformedMeta(t *testing.T) {
	var report ImageReport
	err := json.Unmarshal([]byte(`{"meta": {"imageId": {"nested": true}}}`), &report)
	assert.Error(t, err)
}
