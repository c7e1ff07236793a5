package process

import "errors"

// Definition describes one process type. All process types share the same
// record lifecycle, quality checks and issue tracking; a Definition only
// carries the per-type parameter schema, so adding a process type is a table
// entry rather than a new set of endpoints.
type Definition struct {
	Code      string
	Label     string
	ParamKeys []string
}

// ErrUnknownProcess indicates a process code with no definition.
var ErrUnknownProcess = errors.New("unknown process type")

// Definitions is the built-in process catalogue.
var Definitions = map[string]Definition{
	"dyeing": {
		Code:      "dyeing",
		Label:     "Dyeing",
		ParamKeys: []string{"recipe_no", "shade", "liquor_ratio", "temperature_c", "machine_no"},
	},
	"printing": {
		Code:      "printing",
		Label:     "Printing",
		ParamKeys: []string{"design_no", "screen_count", "paste_type", "machine_no"},
	},
	"finishing": {
		Code:      "finishing",
		Label:     "Finishing",
		ParamKeys: []string{"finish_type", "width_cm", "gsm", "machine_no"},
	},
	"cutting_packing": {
		Code:      "cutting_packing",
		Label:     "Cutting & Packing",
		ParamKeys: []string{"roll_count", "piece_length_m", "carton_count"},
	},
}

// Lookup resolves a process code.
func Lookup(code string) (Definition, error) {
	def, ok := Definitions[code]
	if !ok {
		return Definition{}, ErrUnknownProcess
	}
	return def, nil
}
