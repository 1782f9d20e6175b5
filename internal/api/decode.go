package api

import (
	"encoding/json"
	"io"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rotisserie/eris"

	"github.com/spigell/salary-intel/internal/intel"
)

type body struct {
	intel.Request `mapstructure:",squash"`

	Budget map[string]any `mapstructure:"computationBudget"`
}

// decodeBody reads a request object. Keys match case and separator
// insensitively and request scalars are coerced, so "experience_years": "7"
// decodes like "experienceYears": 7. Budget values are taken as typed. A
// missing budget, or missing budget keys, take the defaults.
func decodeBody(r io.Reader) (intel.Request, intel.ComputationBudget, error) {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return intel.Request{}, intel.ComputationBudget{}, eris.New("request body must be a JSON object")
	}
	if raw == nil {
		return intel.Request{}, intel.ComputationBudget{}, eris.New("request body must be a JSON object")
	}

	var b body
	if err := decode(raw, &b, true); err != nil {
		return intel.Request{}, intel.ComputationBudget{}, err
	}

	budget := intel.DefaultBudget()
	if b.Budget != nil {
		if err := checkLLMCalls(b.Budget); err != nil {
			return intel.Request{}, intel.ComputationBudget{}, err
		}
		if err := decode(b.Budget, &budget, false); err != nil {
			return intel.Request{}, intel.ComputationBudget{}, err
		}
	}
	return b.Request, budget, nil
}

// checkLLMCalls rejects an llm_calls that is not an integral JSON number.
// mapstructure truncates floats into ints, so 1.9 would otherwise pass as 1.
func checkLLMCalls(budget map[string]any) error {
	for key, v := range budget {
		if !matchName(key, "llm_calls") {
			continue
		}
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) {
			return eris.Errorf("llm_calls must be exactly 1, got %v", v)
		}
	}
	return nil
}

func decode(input map[string]any, target any, weak bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: weak,
		MatchName:        matchName,
		Result:           target,
	})
	if err != nil {
		return eris.Wrap(err, "build decoder")
	}
	if err := dec.Decode(input); err != nil {
		return eris.New("invalid request body: " + flatten(err))
	}
	return nil
}

func matchName(key, field string) bool {
	return fold(key) == fold(field)
}

func fold(s string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(s))
}

// flatten keeps mapstructure's multi-line error readable in a JSON body.
func flatten(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}
