package campaign

// Status is the position of a session in the generation cycle.
type Status string

const (
	// StatusIdle means nothing has been generated in this session yet
	StatusIdle Status = "idle"

	// StatusGeneratingCopy means the copy request is in flight
	StatusGeneratingCopy Status = "generating_copy"

	// StatusGeneratingImage means copy is done and the image request is in flight
	StatusGeneratingImage Status = "generating_image"

	// StatusCompleted means the last cycle produced a result
	StatusCompleted Status = "completed"

	// StatusError means the last cycle failed
	StatusError Status = "error"
)

func (s Status) String() string {
	return string(s)
}

// IsActive returns true while a cycle is in flight
func (s Status) IsActive() bool {
	return s == StatusGeneratingCopy || s == StatusGeneratingImage
}

// IsFinished returns true if the last cycle has resolved
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusError
}

// Label is the status panel text.
func (s Status) Label() string {
	switch s {
	case StatusGeneratingCopy:
		return "Writing compelling copy..."
	case StatusGeneratingImage:
		return "Designing background visuals..."
	case StatusCompleted:
		return "Campaign ready"
	case StatusError:
		return "Generation failed"
	default:
		return "Enter details to see magic happen"
	}
}
