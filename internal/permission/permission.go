// Package permission classifies tool names into approval levels.
// Every tool name the model client can emit appears in exactly one level.
package permission

// Level is a tool's approval classification.
type Level int

const (
	// Safe tools execute without gating.
	Safe Level = iota
	// NeedsApproval tools gate unless session auto-approve is on.
	NeedsApproval
	// Dangerous tools always gate; auto-approve does not apply.
	Dangerous
)

func (l Level) String() string {
	switch l {
	case Safe:
		return "safe"
	case NeedsApproval:
		return "needs_approval"
	case Dangerous:
		return "dangerous"
	default:
		return "unknown"
	}
}

// ParseLevel maps a level name back to its Level. The second return is
// false for unrecognized names.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "safe":
		return Safe, true
	case "needs_approval":
		return NeedsApproval, true
	case "dangerous":
		return Dangerous, true
	}
	return 0, false
}

// Classification is an immutable lookup of tool name to level, injected at
// construction rather than referenced as ambient global state.
type Classification map[string]Level

// Default returns the built-in classification covering the standard tool set.
func Default() Classification {
	return Classification{
		"read_file":    Safe,
		"list_files":   Safe,
		"search_files": Safe,
		"web_fetch":    Safe,

		"create_file": NeedsApproval,
		"edit_file":   NeedsApproval,

		"delete_file":     Dangerous,
		"execute_command": Dangerous,
	}
}

// Level returns the classification for a tool name. Unknown tools are treated
// as dangerous.
func (c Classification) Level(name string) Level {
	if l, ok := c[name]; ok {
		return l
	}
	return Dangerous
}

// NeedsGate reports whether a tool call must suspend on the approval gate.
// Session auto-approve suppresses gating for NeedsApproval tools only;
// dangerous tools gate regardless.
func (c Classification) NeedsGate(name string, sessionAutoApprove bool) bool {
	switch c.Level(name) {
	case Safe:
		return false
	case NeedsApproval:
		return !sessionAutoApprove
	default:
		return true
	}
}
