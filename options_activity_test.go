package buildopts

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-buildopts/pkg/activity"
)

func TestWithActivityHooksClonesAndFiltersNil(t *testing.T) {
	hook := activity.HookFunc(func(context.Context, activity.Event) error { return nil })

	r := NewResolver(WithActivityHooks(activity.Hooks{nil, hook}))
	hooks := r.ActivityHooks()
	if len(hooks) != 1 {
		t.Fatalf("expected 1 hook, got %d", len(hooks))
	}

	hooks[0] = nil
	again := r.ActivityHooks()
	if len(again) != 1 || again[0] == nil {
		t.Fatalf("expected cloned hooks unaffected by mutation, got %+v", again)
	}
}

func TestActivityHooksDefaultNil(t *testing.T) {
	if hooks := NewResolver().ActivityHooks(); hooks != nil {
		t.Fatalf("expected nil hooks by default, got %+v", hooks)
	}
}

func TestRenderingEmitsArgsEvents(t *testing.T) {
	capture := &activity.CaptureHook{}
	r := quietResolver(WithQuote("'"), WithActivityHooks(activity.Hooks{capture}))
	env := Environment{"npm_config_enable_fonts": "true", "npm_config_buildtype": "debug"}

	if _, err := r.MesonArgs("magick", env, []MesonOption{{Name: "fonts", Type: MesonTypeBoolean}}); err != nil {
		t.Fatalf("meson: %v", err)
	}
	if _, err := r.ConanArgs("magick", env, nil); err != nil {
		t.Fatalf("conan: %v", err)
	}

	if len(capture.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(capture.Events))
	}
	meson, conan := capture.Events[0], capture.Events[1]
	if meson.Verb != activity.VerbArgsRendered || meson.Tool != "meson" || meson.Package != "magick" {
		t.Fatalf("unexpected meson event %+v", meson)
	}
	if meson.Channel != activity.DefaultChannel {
		t.Fatalf("expected default channel, got %q", meson.Channel)
	}
	if !reflect.DeepEqual(meson.Metadata["args"], []string{"-Dfonts=True"}) {
		t.Fatalf("unexpected args metadata %#v", meson.Metadata["args"])
	}
	if meson.ObjectID == "" || meson.ObjectID == conan.ObjectID {
		t.Fatalf("render ids must be unique, got %q and %q", meson.ObjectID, conan.ObjectID)
	}
	if !reflect.DeepEqual(conan.Metadata["args"], []string{"-s", "build_type='debug'"}) {
		t.Fatalf("unexpected conan metadata %#v", conan.Metadata["args"])
	}
}

func TestActivityDisabledByConfig(t *testing.T) {
	capture := &activity.CaptureHook{}
	r := quietResolver(
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityConfig(activity.Config{Enabled: false}),
	)
	if _, err := r.MesonArgs("", Environment{}, nil); err != nil {
		t.Fatalf("meson: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(capture.Events))
	}
}

func TestHookFailureDoesNotChangeResult(t *testing.T) {
	failing := &activity.CaptureHook{Err: errors.New("sink down")}
	var logged []ResolutionEvent
	r := NewResolver(
		WithLogger(LoggerFunc(func(e ResolutionEvent) { logged = append(logged, e) })),
		WithActivityHooks(activity.Hooks{failing}),
	)
	args, err := r.MesonArgs("", Environment{"npm_config_enable_fonts": "true"}, []MesonOption{{Name: "fonts", Type: MesonTypeBoolean}})
	if err != nil {
		t.Fatalf("hook errors must not surface: %v", err)
	}
	if !reflect.DeepEqual(args, []string{"-Dfonts=True"}) {
		t.Fatalf("got %q", args)
	}
	if len(logged) != 1 || logged[0].Err == nil {
		t.Fatalf("hook failure should be logged, got %+v", logged)
	}
}
