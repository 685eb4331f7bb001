/*
	JSON Schema validation of lineage entries on decode, so malformed lineage
	payloads fail at the codec boundary instead of deep inside validation or
	relabeling.
*/

package trk

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// lineageSchema describes one serialized lineage graph: stringified cell ids
// mapping to track records.
const lineageSchema = `{
	"type": "object",
	"propertyNames": { "pattern": "^[0-9]+$" },
	"additionalProperties": {
		"type": "object",
		"required": ["label", "parent", "daughters", "frames"],
		"properties": {
			"label": { "type": "integer" },
			"parent": { "type": ["integer", "null"] },
			"daughters": { "type": "array", "items": { "type": "integer" } },
			"frames": { "type": "array", "items": { "type": "integer" } }
		}
	}
}`

var (
	compileSchemas sync.Once
	singleSchema   *jsonschema.Schema
	batchSchema    *jsonschema.Schema
	schemaErr      error
)

func getSchemas() (single, batch *jsonschema.Schema, err error) {
	compileSchemas.Do(func() {
		singleSchema, schemaErr = jsonschema.CompileString("lineage.json", lineageSchema)
		if schemaErr != nil {
			return
		}
		batchSchema, schemaErr = jsonschema.CompileString("lineages.json",
			fmt.Sprintf(`{ "type": "array", "items": %s }`, lineageSchema))
	})
	return singleSchema, batchSchema, schemaErr
}

// validateLineageJSON checks the raw lineage payload against the expected
// shape for its container form.
func validateLineageJSON(data []byte, batch bool) error {
	single, batchSch, err := getSchemas()
	if err != nil {
		return fmt.Errorf("cannot compile lineage schema: %v", err)
	}
	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	sch := single
	if batch {
		sch = batchSch
	}
	return sch.Validate(payload)
}
