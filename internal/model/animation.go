package model

// AnimationMode tells the presentation layer how to play a clip.
type AnimationMode int32

const (
	// AnimationPlay plays the clip once and returns to the default pose
	AnimationPlay AnimationMode = iota
	// AnimationLoop repeats the clip
	AnimationLoop
	// AnimationHold plays the clip once and holds the last frame
	AnimationHold
	// AnimationOnceThenLoop plays the clip once, then loops Animation.Then
	AnimationOnceThenLoop
)

// String returns human-readable mode name
func (m AnimationMode) String() string {
	switch m {
	case AnimationPlay:
		return "PLAY"
	case AnimationLoop:
		return "LOOP"
	case AnimationHold:
		return "HOLD"
	case AnimationOnceThenLoop:
		return "ONCE_THEN_LOOP"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the mode by name.
func (m AnimationMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Animation is the clip the presentation layer should play for a behaviour.
type Animation struct {
	Name string        `json:"name"`
	Mode AnimationMode `json:"mode"`
	Then string        `json:"then,omitempty"` // looped after Name when Mode is AnimationOnceThenLoop
}
