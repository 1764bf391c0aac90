package config

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RuleResult is the outcome of evaluating permission rules for a tool call.
type RuleResult int

const (
	// RuleDefault means no rule matched; the tool's classification decides.
	RuleDefault RuleResult = iota
	// RuleAllow skips the approval prompt.
	RuleAllow
	// RuleDeny rejects the call without prompting.
	RuleDeny
	// RuleAsk forces a prompt even for safe tools.
	RuleAsk
)

func (r RuleResult) String() string {
	switch r {
	case RuleAllow:
		return "allow"
	case RuleDeny:
		return "deny"
	case RuleAsk:
		return "ask"
	default:
		return "default"
	}
}

// CheckRules evaluates the permission rules against a tool call.
// Deny rules win over allow rules, allow over ask.
func (s *Settings) CheckRules(toolName string, args map[string]any) RuleResult {
	rule := BuildRule(toolName, args)

	for _, p := range s.Permissions.Deny {
		if MatchRule(rule, p) {
			return RuleDeny
		}
	}
	for _, p := range s.Permissions.Allow {
		if MatchRule(rule, p) {
			return RuleAllow
		}
	}
	for _, p := range s.Permissions.Ask {
		if MatchRule(rule, p) {
			return RuleAsk
		}
	}
	return RuleDefault
}

// BuildRule renders a tool call as "tool_name(arg)" for rule matching.
// The arg is the tool's primary argument: the command for
// execute_command, the file path for file tools, the pattern for
// list_files/search_files, and "domain:host" for web_fetch.
func BuildRule(toolName string, args map[string]any) string {
	var arg string

	switch toolName {
	case "execute_command":
		if cmd, ok := args["command"].(string); ok {
			arg = normalizeCommand(cmd)
		}
	case "read_file", "create_file", "edit_file", "delete_file":
		arg, _ = args["file_path"].(string)
	case "list_files", "search_files":
		arg, _ = args["pattern"].(string)
	case "web_fetch":
		if u, ok := args["url"].(string); ok {
			if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
				arg = "domain:" + parsed.Host
			} else {
				arg = u
			}
		}
	default:
		if fp, ok := args["file_path"].(string); ok {
			arg = fp
		} else if p, ok := args["pattern"].(string); ok {
			arg = p
		}
	}

	return toolName + "(" + arg + ")"
}

// normalizeCommand strips any path prefix from the command word so a rule
// like "execute_command(rm *)" also matches "/bin/rm -rf x".
func normalizeCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return ""
	}
	word, rest, found := strings.Cut(cmd, " ")
	word = filepath.Base(word)
	if !found {
		return word
	}
	return word + " " + rest
}

// MatchRule reports whether a "tool(arg)" rule matches a "tool(pattern)"
// pattern. Tool names must match exactly; the arg is matched against the
// pattern with doublestar globbing, so "**" spans path separators.
func MatchRule(rule, pattern string) bool {
	ruleTool, ruleArg := splitRule(rule)
	patTool, patArg := splitRule(pattern)
	if ruleTool != patTool {
		return false
	}
	if patArg == "" {
		return ruleArg == ""
	}
	if ok, err := doublestar.Match(patArg, ruleArg); err == nil && ok {
		return true
	}
	// A trailing "*" is a prefix rule: "execute_command(rm *)" matches any
	// rm invocation, arguments with slashes included.
	if strings.HasSuffix(patArg, "*") && !strings.HasSuffix(patArg, "**") {
		prefix := strings.TrimSuffix(patArg, "*")
		if !strings.ContainsAny(prefix, "*?[") && strings.HasPrefix(ruleArg, prefix) {
			return true
		}
	}
	// A bare filename pattern like "*.env" should also match the basename
	// of a path argument.
	if !strings.Contains(patArg, "/") && strings.Contains(ruleArg, "/") {
		if ok, err := doublestar.Match(patArg, filepath.Base(ruleArg)); err == nil && ok {
			return true
		}
	}
	return false
}

func splitRule(s string) (tool, arg string) {
	tool, arg, found := strings.Cut(s, "(")
	if !found {
		return s, ""
	}
	return tool, strings.TrimSuffix(arg, ")")
}
