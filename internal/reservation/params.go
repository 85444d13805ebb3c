package reservation

// Parameter is one entry of the parameter list the agent sends to an action
// group function.
type Parameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// The agent action this package serves.
const (
	ActionGroupName = "reservationActionGroup"
	FunctionName    = "reserve"
)

const (
	KeyDate           = "date"
	KeyHour           = "hour"
	KeyNumberOfPeople = "numberOfPeople"
)

// Params is the reservation request as the agent understood it.
// Values are kept exactly as sent; "19" and "-3" are both valid here.
type Params struct {
	Date           string `json:"date"`
	Hour           string `json:"hour"`
	NumberOfPeople string `json:"numberOfPeople"`
}

// Extract copies the recognised parameters into a Params. Unknown names are
// ignored and absent keys stay empty. A repeated key keeps its last value.
func Extract(params []Parameter) Params {
	var p Params
	for _, param := range params {
		switch param.Name {
		case KeyDate:
			p.Date = param.Value
		case KeyHour:
			p.Hour = param.Value
		case KeyNumberOfPeople:
			p.NumberOfPeople = param.Value
		}
	}
	return p
}

// Missing lists the recognised keys that ended up empty.
func (p Params) Missing() []string {
	var out []string
	if p.Date == "" {
		out = append(out, KeyDate)
	}
	if p.Hour == "" {
		out = append(out, KeyHour)
	}
	if p.NumberOfPeople == "" {
		out = append(out, KeyNumberOfPeople)
	}
	return out
}
