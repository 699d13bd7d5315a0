package nlu

import "context"

// Action is the dispatch tag the assistant switches on. It mirrors Intent on
// every path the resolver produces today, but the two stay separate fields.
type Action string

const (
	ActionAddVehicle     Action = "add_vehicle"
	ActionSearchVehicle  Action = "search_vehicle"
	ActionSellVehicle    Action = "sell_vehicle"
	ActionDeleteVehicle  Action = "delete_vehicle"
	ActionExtractChassis Action = "extract_chassis"
	ActionGetStats       Action = "get_stats"
	ActionUnknown        Action = "unknown"
)

var knownActions = map[Action]bool{
	ActionAddVehicle:     true,
	ActionSearchVehicle:  true,
	ActionSellVehicle:    true,
	ActionDeleteVehicle:  true,
	ActionExtractChassis: true,
	ActionGetStats:       true,
}

// ParseAction maps an arbitrary tag onto the closed action set. Anything
// outside the set degrades to ActionUnknown instead of crashing the turn.
func ParseAction(tag string) Action {
	a := Action(tag)
	if knownActions[a] {
		return a
	}
	return ActionUnknown
}

// Entity keys the resolver populates per intent.
const (
	EntitySearchTerm    = "searchTerm"
	EntityChassisNumber = "chassisNumber"
)

type RecognizedCommand struct {
	Intent     string            `json:"intent"`
	Entities   map[string]string `json:"entities"`
	Confidence float64           `json:"confidence"`
	Action     Action            `json:"action"`
	Data       map[string]string `json:"data,omitempty"`
	Content    string            `json:"content,omitempty"`
}

type IResolver interface {
	Resolve(ctx context.Context, commandText string) (*RecognizedCommand, error)
}
