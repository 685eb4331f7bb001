package tracks

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestLineageJSONRoundTrip(t *testing.T) {
	_, lineage := testMovie()
	data, err := json.Marshal(lineage)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	// Keys must be stringified ids.
	for _, key := range []string{`"1"`, `"2"`, `"3"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("marshaled lineage missing key %s: %s", key, data)
		}
	}

	var decoded Lineage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, lineage) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, lineage)
	}
	if decoded[2].Parent == nil || *decoded[2].Parent != 1 {
		t.Errorf("parent not recovered for cell 2")
	}
	if decoded[1].Parent != nil {
		t.Errorf("nil parent not preserved for cell 1")
	}
}

func TestLineageJSONBadKeys(t *testing.T) {
	for _, payload := range []string{
		`{"abc": {"label": 1, "parent": null, "daughters": [], "frames": [0]}}`,
		`{"99999999999": {"label": 1, "parent": null, "daughters": [], "frames": [0]}}`,
		`{"1": null}`,
	} {
		var lineage Lineage
		if err := json.Unmarshal([]byte(payload), &lineage); err == nil {
			t.Errorf("expected decode failure for %s", payload)
		}
	}
}

func TestLineageJSONNormalizesNilSlices(t *testing.T) {
	payload := `{"4": {"label": 4, "parent": null}}`
	var lineage Lineage
	if err := json.Unmarshal([]byte(payload), &lineage); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	track := lineage[4]
	if track.Daughters == nil || track.Frames == nil {
		t.Errorf("missing sequences should decode to empty, got %+v", track)
	}

	data, err := json.Marshal(Lineage{5: {Label: 5}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"daughters":[]`) || !strings.Contains(string(data), `"frames":[]`) {
		t.Errorf("nil sequences should marshal as empty arrays: %s", data)
	}
}

func TestLineageCellIDs(t *testing.T) {
	_, lineage := testMovie()
	if got := lineage.CellIDs(); !reflect.DeepEqual(got, []int32{1, 2, 3}) {
		t.Errorf("expected sorted ids [1 2 3], got %v", got)
	}
	if got := lineage.NumDivisions(); got != 1 {
		t.Errorf("expected 1 division, got %d", got)
	}
}
