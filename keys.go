package buildopts

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultPrefix is the npm configuration namespace.
	DefaultPrefix = "npm_config"
	// DefaultVerbosityKey mirrors npm's log level setting.
	DefaultVerbosityKey = "npm_config_loglevel"
)

// NormalizeName replaces the first character outside [A-Za-z0-9] with an
// underscore. Only the first occurrence is replaced: "magickwand.js" becomes
// "magickwand_js" but "c_args-meson" is returned unchanged because its first
// separator is already an underscore.
func NormalizeName(name string) string {
	idx := strings.IndexFunc(name, func(r rune) bool {
		return !isAlphaNumeric(r)
	})
	if idx < 0 {
		return name
	}
	_, size := utf8.DecodeRuneInString(name[idx:])
	return name[:idx] + "_" + name[idx+size:]
}

func isAlphaNumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// Keys holds the three environment keys inspected for one option at one scope.
type Keys struct {
	Enable  string `json:"enable"`
	Disable string `json:"disable"`
	Value   string `json:"value"`
}

// OptionKeys builds the enable, disable and value keys for name under prefix.
// An empty pkg produces the global keys.
func OptionKeys(prefix, pkg, name string) Keys {
	envName := NormalizeName(name)
	segment := ""
	if pkg = NormalizeName(pkg); pkg != "" {
		segment = pkg + "_"
	}
	base := prefix + "_" + segment
	return Keys{
		Enable:  base + "enable_" + envName,
		Disable: base + "disable_" + envName,
		Value:   base + envName,
	}
}

func toolName(name string, tool Tool) string {
	return name + "-" + string(tool)
}
