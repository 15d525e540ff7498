package activity

import (
	"strings"
	"time"
)

const (
	VerbArgsRendered     = "buildopts.args.rendered"
	VerbTemplateRendered = "buildopts.template.rendered"
)

// ArgsEventInput describes a set of rendered build tool arguments.
type ArgsEventInput struct {
	ActorID    string
	RenderID   string
	Channel    string
	Package    string
	Tool       string
	Args       []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildArgsRenderedEvent constructs an event for rendered meson/conan args.
func BuildArgsRenderedEvent(input ArgsEventInput) Event {
	return buildEvent(VerbArgsRendered, "buildopts.args", input)
}

// BuildTemplateRenderedEvent constructs an event for a rendered template.
func BuildTemplateRenderedEvent(input ArgsEventInput) Event {
	return buildEvent(VerbTemplateRendered, "buildopts.template", input)
}

func buildEvent(verb, objectType string, input ArgsEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Args != nil {
		metadata = ensureMetadata(metadata)
		metadata["args"] = append([]string{}, input.Args...)
		metadata["arg_count"] = len(input.Args)
	}
	if input.RenderID != "" {
		metadata = ensureMetadata(metadata)
		metadata["render_id"] = input.RenderID
	}

	objectID := strings.TrimSpace(input.RenderID)
	if objectID == "" && input.Package != "" {
		objectID = strings.TrimSpace(input.Package)
		if input.Tool != "" {
			objectID += "/" + strings.TrimSpace(input.Tool)
		}
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Package:    strings.TrimSpace(input.Package),
		Tool:       strings.TrimSpace(input.Tool),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
