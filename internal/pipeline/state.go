package pipeline

import "fmt"

// State is a step of the per-view state machine.
type State int

const (
	Idle State = iota
	PoseSet
	FacesSelected
	MaterialAssigned
	UVProjected
	TextureBound
	PoseRestored
	AllRestored
	Done
)

var stateNames = [...]string{
	Idle:             "Idle",
	PoseSet:          "PoseSet",
	FacesSelected:    "FacesSelected",
	MaterialAssigned: "MaterialAssigned",
	UVProjected:      "UVProjected",
	TextureBound:     "TextureBound",
	PoseRestored:     "PoseRestored",
	AllRestored:      "AllRestored",
	Done:             "Done",
}

// String returns the state name.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}
