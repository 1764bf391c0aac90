package permission

import "testing"

func TestDefaultLevels(t *testing.T) {
	c := Default()

	cases := map[string]Level{
		"read_file":       Safe,
		"list_files":      Safe,
		"search_files":    Safe,
		"web_fetch":       Safe,
		"create_file":     NeedsApproval,
		"edit_file":       NeedsApproval,
		"delete_file":     Dangerous,
		"execute_command": Dangerous,
	}
	for name, want := range cases {
		if got := c.Level(name); got != want {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
}

func TestUnknownToolIsDangerous(t *testing.T) {
	c := Default()
	if c.Level("frobnicate") != Dangerous {
		t.Error("unknown tools should classify as dangerous")
	}
}

func TestNeedsGate(t *testing.T) {
	c := Default()

	if c.NeedsGate("read_file", false) {
		t.Error("safe tool should never gate")
	}
	if c.NeedsGate("read_file", true) {
		t.Error("safe tool should never gate, even with auto-approve")
	}
	if !c.NeedsGate("edit_file", false) {
		t.Error("approval-required tool should gate without auto-approve")
	}
	if c.NeedsGate("edit_file", true) {
		t.Error("approval-required tool should not gate with auto-approve")
	}
	if !c.NeedsGate("delete_file", false) {
		t.Error("dangerous tool should always gate")
	}
	if !c.NeedsGate("delete_file", true) {
		t.Error("auto-approve must not bypass dangerous tools")
	}
	if !c.NeedsGate("execute_command", true) {
		t.Error("auto-approve must not bypass execute_command")
	}
}

func TestInjectedOverride(t *testing.T) {
	c := Classification{"execute_command": Safe}
	if c.NeedsGate("execute_command", false) {
		t.Error("injected classification should override the default")
	}
}
