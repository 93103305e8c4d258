package session

// Action is what the loop does in response to a polled key.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionSave
)

const (
	KeyQuit = 'q'
	KeySave = 's'
)

func (a Action) String() string {
	switch a {
	case ActionQuit:
		return "quit"
	case ActionSave:
		return "save"
	default:
		return "none"
	}
}

// ClassifyKey maps a WaitKey result to an Action. Negative values mean no
// key was pressed; only the low byte is significant.
func ClassifyKey(key int) Action {
	if key < 0 {
		return ActionNone
	}
	switch key & 0xFF {
	case KeyQuit:
		return ActionQuit
	case KeySave:
		return ActionSave
	default:
		return ActionNone
	}
}
