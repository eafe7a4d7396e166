package terminal

// Action is a user command decoded from terminal input
type Action int

const (
	ActionNone Action = iota
	ActionToggle
	ActionSpeedUp
	ActionSpeedDown
	ActionFontUp
	ActionFontDown
	ActionMirror
	ActionTheme
	ActionScrollUp
	ActionScrollDown
	ActionQuit
)

var actionNames = map[Action]string{
	ActionNone:       "none",
	ActionToggle:     "toggle",
	ActionSpeedUp:    "speed_up",
	ActionSpeedDown:  "speed_down",
	ActionFontUp:     "font_up",
	ActionFontDown:   "font_down",
	ActionMirror:     "mirror",
	ActionTheme:      "theme",
	ActionScrollUp:   "scroll_up",
	ActionScrollDown: "scroll_down",
	ActionQuit:       "quit",
}

// String returns the action name
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b
)

var keyBindings = map[byte]Action{
	' ':      ActionToggle,
	'+':      ActionSpeedUp,
	'=':      ActionSpeedUp,
	'-':      ActionSpeedDown,
	'_':      ActionSpeedDown,
	']':      ActionFontUp,
	'[':      ActionFontDown,
	'm':      ActionMirror,
	'M':      ActionMirror,
	'd':      ActionTheme,
	'D':      ActionTheme,
	'k':      ActionScrollUp,
	'j':      ActionScrollDown,
	'q':      ActionQuit,
	'Q':      ActionQuit,
	keyCtrlC: ActionQuit,
}

// ParseKeys decodes a chunk of raw terminal input. Arrow up and down
// scroll; unbound keys are dropped.
func ParseKeys(input []byte) []Action {
	var actions []Action
	for i := 0; i < len(input); i++ {
		b := input[i]
		if b == keyEscape && i+2 < len(input) && input[i+1] == '[' {
			switch input[i+2] {
			case 'A':
				actions = append(actions, ActionScrollUp)
			case 'B':
				actions = append(actions, ActionScrollDown)
			}
			i += 2
			continue
		}
		if action, ok := keyBindings[b]; ok {
			actions = append(actions, action)
		}
	}
	return actions
}
