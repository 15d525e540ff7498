package buildopts

import (
	"context"

	"github.com/goliatone/go-buildopts/pkg/activity"
	"github.com/google/uuid"
)

// ActivityHooks returns a cloned slice of the activity hooks configured on the
// resolver. The returned slice can be safely mutated by the caller.
func (r *Resolver) ActivityHooks() activity.Hooks {
	if r == nil {
		return nil
	}
	return cloneActivityHooks(r.cfg.activityHooks)
}

// Emit forwards event to the configured hooks. Hook failures are logged and
// never returned.
func (r *Resolver) Emit(ctx context.Context, event activity.Event) {
	if !r.emitter.Enabled() {
		return
	}
	if err := r.emitter.Emit(ctx, event); err != nil {
		r.logger().LogResolution(ResolutionEvent{
			Stage:   StageTool,
			Package: event.Package,
			Message: "activity hook failed",
			Err:     err,
		})
	}
}

func (r *Resolver) emitRendered(tool Tool, pkg string, args []string) {
	if !r.emitter.Enabled() {
		return
	}
	r.Emit(context.Background(), activity.BuildArgsRenderedEvent(activity.ArgsEventInput{
		RenderID: uuid.NewString(),
		Package:  pkg,
		Tool:     string(tool),
		Args:     args,
	}))
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
