package buildopts

import "strconv"

// Environment is the flat configuration namespace made available to a build,
// usually the process environment exported by npm/xpm. It is never mutated.
type Environment map[string]string

// Lookup returns the value stored under key. A nil Environment behaves as empty.
func (e Environment) Lookup(key string) string {
	if e == nil {
		return ""
	}
	return e[key]
}

// Tool selects a build tool so overrides can target one of them only.
type Tool string

const (
	// ToolNone resolves without any tool-suffixed override.
	ToolNone Tool = ""
	// ToolMeson targets meson.
	ToolMeson Tool = "meson"
	// ToolConan targets conan.
	ToolConan Tool = "conan"
)

func (t Tool) String() string {
	if t == ToolNone {
		return "none"
	}
	return string(t)
}

// ParseTool converts a string into a Tool. Unknown values map to ToolNone and
// ok=false.
func ParseTool(value string) (Tool, bool) {
	switch value {
	case "", "none":
		return ToolNone, true
	case "meson", "MESON":
		return ToolMeson, true
	case "conan", "CONAN":
		return ToolConan, true
	default:
		return ToolNone, false
	}
}

// Kind tags the state held by a Value.
type Kind int

const (
	// KindAbsent means no source provided a setting.
	KindAbsent Kind = iota
	// KindEnabled is the boolean true state.
	KindEnabled
	// KindDisabled is the boolean false state.
	KindDisabled
	// KindString carries a literal string setting.
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindEnabled:
		return "enabled"
	case KindDisabled:
		return "disabled"
	case KindString:
		return "string"
	default:
		return "absent"
	}
}

// Value is the result of resolving a single option. Exactly one Kind is set;
// Text is only meaningful for KindString.
type Value struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text,omitempty"`
}

// Absent returns the empty resolution.
func Absent() Value { return Value{} }

// Enabled returns the boolean true resolution.
func Enabled() Value { return Value{Kind: KindEnabled} }

// Disabled returns the boolean false resolution.
func Disabled() Value { return Value{Kind: KindDisabled} }

// StringValue returns a string resolution.
func StringValue(text string) Value { return Value{Kind: KindString, Text: text} }

// IsAbsent reports whether no tier produced a setting.
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// IsBool reports whether v is Enabled or Disabled.
func (v Value) IsBool() bool { return v.Kind == KindEnabled || v.Kind == KindDisabled }

// Truthy is true for Enabled and for non-empty strings.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindEnabled:
		return true
	case KindString:
		return v.Text != ""
	default:
		return false
	}
}

// String renders v the way the diagnostics print it: true, false, the text,
// or <absent>.
func (v Value) String() string {
	switch v.Kind {
	case KindEnabled:
		return strconv.FormatBool(true)
	case KindDisabled:
		return strconv.FormatBool(false)
	case KindString:
		return v.Text
	default:
		return "<absent>"
	}
}

// Any returns v as a plain Go value: bool, string, or nil when absent.
func (v Value) Any() any {
	switch v.Kind {
	case KindEnabled:
		return true
	case KindDisabled:
		return false
	case KindString:
		return v.Text
	default:
		return nil
	}
}
