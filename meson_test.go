package buildopts

import (
	"reflect"
	"sort"
	"testing"
)

var magickwandMeson = []MesonOption{
	{Name: "prefix", Type: MesonTypeString, Section: "directory"},
	{Name: "backend", Type: "combo", Section: "core"},
	{Name: "c_args", Type: MesonTypeArray, Section: "compiler"},
	{Name: "fonts", Type: MesonTypeBoolean, Section: "user"},
	{Name: "png", Type: MesonTypeBoolean, Section: "user"},
	{Name: "jpeg", Type: MesonTypeBoolean, Section: "user"},
}

func mesonArgs(t *testing.T, r *Resolver, pkg string, env Environment) []string {
	t.Helper()
	args, err := r.MesonArgs(pkg, env, magickwandMeson)
	if err != nil {
		t.Fatalf("meson args: %v", err)
	}
	return args
}

func sameMembers(t *testing.T, got, want []string) {
	t.Helper()
	g := append([]string(nil), got...)
	w := append([]string(nil), want...)
	sort.Strings(g)
	sort.Strings(w)
	if !reflect.DeepEqual(g, w) {
		t.Fatalf("got %q, want members %q", got, want)
	}
}

func TestMesonGlobalOptions(t *testing.T) {
	r := quietResolver(WithQuote(""))
	args := mesonArgs(t, r, "magickwand.js", Environment{
		"npm_config_enable_fonts": "true",
		"npm_config_disable_png":  "true",
		"npm_config_enable_jpeg":  "",
		"npm_config_c_args":       "-O0 -DDEBUG",
	})
	sameMembers(t, args, []string{"-Dc_args=-O0 -DDEBUG", "-Dfonts=True", "-Dpng=False"})
}

func TestMesonPackageOptions(t *testing.T) {
	r := quietResolver(WithQuote(""))
	args := mesonArgs(t, r, "magickwand.js", Environment{
		"npm_config_magickwand_js_enable_fonts": "true",
		"npm_config_magickwand_js_disable_png":  "true",
		"npm_config_magickwand_js_enable_jpeg":  "",
		"npm_config_magickwand_js_c_args":       "-O0 -DDEBUG",
	})
	sameMembers(t, args, []string{"-Dc_args=-O0 -DDEBUG", "-Dfonts=True", "-Dpng=False"})
}

func TestMesonOverrides(t *testing.T) {
	r := quietResolver(WithQuote(""))
	args := mesonArgs(t, r, "magickwand.js", Environment{
		"npm_config_disable_fonts":              "true",
		"npm_config_enable_png":                 "true",
		"npm_config_disable_jpeg":               "true",
		"npm_config_c_args":                     "-O2 -DNDEBUG",
		"npm_config_magickwand_js_enable_fonts": "true",
		"npm_config_magickwand_js_disable_png":  "true",
		"npm_config_magickwand_js_enable_jpeg":  "true",
		"npm_config_magickwand_js_c_args":       "-O0 -DDEBUG",
	})
	sameMembers(t, args, []string{"-Dc_args=-O0 -DDEBUG", "-Djpeg=True", "-Dfonts=True", "-Dpng=False"})
}

func TestMesonConflictFails(t *testing.T) {
	_, err := quietResolver().MesonArgs("magickwand.js", Environment{
		"npm_config_enable_fonts":  "true",
		"npm_config_disable_fonts": "true",
	}, magickwandMeson)
	if err == nil {
		t.Fatalf("expected conflict")
	}
}

func TestMesonDeclarationOrderAndQuoting(t *testing.T) {
	r := quietResolver(WithQuote("'"))
	args := mesonArgs(t, r, "", Environment{
		"npm_config_disable_png":  "true",
		"npm_config_c_args":       "-O0 -DDEBUG",
		"npm_config_enable_fonts": "true",
		"npm_config_backend":      "vs",
	})
	want := []string{"-Dc_args='-O0 -DDEBUG'", "-Dfonts=True", "-Dpng=False"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("got %q, want %q", args, want)
	}

	joined, err := r.MesonOptions("", Environment{"npm_config_c_args": "-O0 -DDEBUG"}, magickwandMeson)
	if err != nil {
		t.Fatalf("meson options: %v", err)
	}
	if joined != "-Dc_args='-O0 -DDEBUG'" {
		t.Fatalf("unexpected joined form %q", joined)
	}
}

func TestMesonBooleanAbsentEmitsNothing(t *testing.T) {
	args := mesonArgs(t, quietResolver(), "pkg", Environment{})
	if len(args) != 0 {
		t.Fatalf("expected no args, got %q", args)
	}
	args, err := quietResolver().MesonArgs("pkg", Environment{"npm_config_enable_fonts": "true"},
		[]MesonOption{{Name: "fonts", Type: MesonTypeBoolean}})
	if err != nil {
		t.Fatalf("meson args: %v", err)
	}
	if !reflect.DeepEqual(args, []string{"-Dfonts=True"}) {
		t.Fatalf("got %q", args)
	}
}

func TestMesonStringOptionWithFlagRendersText(t *testing.T) {
	args, err := quietResolver(WithQuote("'")).MesonArgs("", Environment{"npm_config_enable_c_args": "true"},
		[]MesonOption{{Name: "c_args", Type: MesonTypeArray}})
	if err != nil {
		t.Fatalf("meson args: %v", err)
	}
	if !reflect.DeepEqual(args, []string{"-Dc_args='true'"}) {
		t.Fatalf("got %q", args)
	}
}

func TestMesonBlacklist(t *testing.T) {
	env := Environment{
		"npm_config_prefix":           "/usr/local",
		"npm_config_enable_prefix":    "",
		"npm_config_pkg_prefix":       "/opt",
		"npm_config_prefix-meson":     "/srv",
		"npm_config_enable_fonts":     "true",
		"npm_config_pkg_enable_fonts": "",
	}
	args := mesonArgs(t, quietResolver(), "pkg", env)
	for _, arg := range args {
		if len(arg) >= 9 && arg[:9] == "-Dprefix=" {
			t.Fatalf("prefix must never be emitted, got %q", args)
		}
	}

	custom := quietResolver(WithMesonBlacklist("fonts"), WithQuote(""))
	args = mesonArgs(t, custom, "pkg", env)
	want := []string{"-Dprefix=/opt"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("custom blacklist: got %q, want %q", args, want)
	}
}

func TestMesonToolOverride(t *testing.T) {
	args := mesonArgs(t, quietResolver(), "magickwand.js", Environment{
		"npm_config_magickwand_js_disable_fonts": "true",
		"npm_config_enable_fonts_meson":          "true",
	})
	if !reflect.DeepEqual(args, []string{"-Dfonts=True"}) {
		t.Fatalf("got %q", args)
	}
}

func TestQuoteFor(t *testing.T) {
	if QuoteFor("windows") != `"` {
		t.Fatalf("windows quote")
	}
	if QuoteFor("linux") != "'" || QuoteFor("darwin") != "'" {
		t.Fatalf("posix quote")
	}
}
