// Package config provides layered settings management.
// Settings are loaded from multiple sources with the following priority
// (lowest to highest):
//  1. ~/.codo/settings.json (user level)
//  2. .codo/settings.json (project level)
//  3. .codo/settings.local.json (local level, typically gitignored)
//
// Tool classification overrides live separately in .codo/tools.yaml.
package config

// Settings is the merged configuration.
type Settings struct {
	// Provider selects the model provider ("anthropic", "openai").
	Provider string `json:"provider,omitempty"`

	// Model is the default model to use.
	Model string `json:"model,omitempty"`

	// MaxIterations caps consecutive model turns before the session
	// pauses to ask whether to continue. Zero means the default.
	MaxIterations int `json:"maxIterations,omitempty"`

	// Permissions defines permission rules for tools.
	Permissions PermissionSettings `json:"permissions,omitempty"`

	// Env defines environment variables to set before the session starts.
	Env map[string]string `json:"env,omitempty"`

	// DisabledTools maps tool name to true when the tool should not be
	// advertised to the model. Higher-priority levels can re-enable a
	// tool by setting it to false.
	DisabledTools map[string]bool `json:"disabledTools,omitempty"`
}

// PermissionSettings defines permission rules for tool execution.
// Rules use the format "tool_name(pattern)" where pattern is a
// doublestar glob matched against the tool's primary argument.
//
// Example rules:
//   - "execute_command(npm *)" - npm commands
//   - "read_file(**/.env)" - .env files anywhere
//   - "edit_file(/path/**)" - files under /path
//   - "web_fetch(domain:github.com)" - a specific host
type PermissionSettings struct {
	// Allow contains patterns that skip the approval prompt.
	Allow []string `json:"allow,omitempty"`

	// Deny contains patterns that are rejected without prompting.
	Deny []string `json:"deny,omitempty"`

	// Ask contains patterns that always prompt, even for safe tools.
	Ask []string `json:"ask,omitempty"`
}

// NewSettings returns empty settings with maps initialized.
func NewSettings() *Settings {
	return &Settings{
		Env:           make(map[string]string),
		DisabledTools: make(map[string]bool),
	}
}

// Merge overlays other onto s and returns the result. Scalar fields from
// other win when set; permission rule lists are concatenated and
// deduplicated; maps are key-merged with other winning on conflict.
func Merge(base, overlay *Settings) *Settings {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}

	out := NewSettings()
	out.Provider = base.Provider
	if overlay.Provider != "" {
		out.Provider = overlay.Provider
	}
	out.Model = base.Model
	if overlay.Model != "" {
		out.Model = overlay.Model
	}
	out.MaxIterations = base.MaxIterations
	if overlay.MaxIterations != 0 {
		out.MaxIterations = overlay.MaxIterations
	}

	out.Permissions = PermissionSettings{
		Allow: mergeRules(base.Permissions.Allow, overlay.Permissions.Allow),
		Deny:  mergeRules(base.Permissions.Deny, overlay.Permissions.Deny),
		Ask:   mergeRules(base.Permissions.Ask, overlay.Permissions.Ask),
	}

	for k, v := range base.Env {
		out.Env[k] = v
	}
	for k, v := range overlay.Env {
		out.Env[k] = v
	}
	for k, v := range base.DisabledTools {
		out.DisabledTools[k] = v
	}
	for k, v := range overlay.DisabledTools {
		out.DisabledTools[k] = v
	}
	return out
}

func mergeRules(base, overlay []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(append([]string{}, base...), overlay...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
