package ingest

import (
	"encoding/json"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/pkg/errors"

	"value_investor/pkg/models"
)

// DecodeBundle parses a provider bundle. Providers occasionally ship trailing
// commas, single quotes or bare NaN tokens, so parsing falls through:
//  1. standard JSON
//  2. json-repair
//  3. Hjson (most lenient)
func DecodeBundle(data []byte) (*models.RawFinancials, error) {
	var raw models.RawFinancials
	if err := json.Unmarshal(data, &raw); err == nil {
		return &raw, nil
	}

	if repaired, err := jsonrepair.RepairJSON(string(data)); err == nil {
		raw = models.RawFinancials{}
		if err := json.Unmarshal([]byte(repaired), &raw); err == nil {
			return &raw, nil
		}
	}

	if standard, err := hjsonToJSON(data); err == nil {
		raw = models.RawFinancials{}
		if err := json.Unmarshal(standard, &raw); err == nil {
			return &raw, nil
		}
	}

	return nil, errors.New("decode bundle: all parsing strategies failed")
}

// hjsonToJSON goes through a generic value so RawValue's JSON decoding still
// applies to every cell.
func hjsonToJSON(data []byte) ([]byte, error) {
	var generic interface{}
	if err := hjson.Unmarshal(data, &generic); err != nil {
		return nil, errors.Wrap(err, "hjson")
	}
	return json.Marshal(generic)
}
