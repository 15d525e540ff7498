package buildopts

import "fmt"

type lookup struct {
	tier Tier
	pkg  string
	name string
}

// plan lists the lookups for name from strongest to weakest. Tool-suffixed
// names resolve as a whole (package, then global) before the plain name is
// considered, so a global "-meson" override beats a package setting.
func plan(pkg, name string, tool Tool) []lookup {
	lookups := make([]lookup, 0, 4)
	if tool != ToolNone {
		suffixed := toolName(name, tool)
		if NormalizeName(pkg) != "" {
			lookups = append(lookups, lookup{tier: TierPackageTool, pkg: pkg, name: suffixed})
		}
		lookups = append(lookups, lookup{tier: TierGlobalTool, name: suffixed})
	}
	if NormalizeName(pkg) != "" {
		lookups = append(lookups, lookup{tier: TierPackage, pkg: pkg, name: name})
	}
	return append(lookups, lookup{tier: TierGlobal, name: name})
}

// RawLookup inspects the enable, disable and value keys of a single scope. An
// empty pkg inspects the global keys. Setting more than one of them is a
// *ConflictError.
func (r *Resolver) RawLookup(pkg string, env Environment, name string) (Value, error) {
	keys := OptionKeys(r.cfg.prefix, pkg, name)
	enable := env.Lookup(keys.Enable) != ""
	disable := env.Lookup(keys.Disable) != ""
	text := env.Lookup(keys.Value)

	var present []string
	if enable {
		present = append(present, keys.Enable)
	}
	if disable {
		present = append(present, keys.Disable)
	}
	if text != "" {
		present = append(present, keys.Value)
	}
	if len(present) > 1 {
		err := &ConflictError{Option: name, Package: pkg, Keys: present}
		r.logger().LogResolution(ResolutionEvent{
			Stage:   StageConflict,
			Package: pkg,
			Option:  name,
			Message: err.Error(),
			Err:     err,
		})
		return Absent(), err
	}

	switch {
	case enable:
		return Enabled(), nil
	case disable:
		return Disabled(), nil
	case text != "":
		return StringValue(text), nil
	default:
		return Absent(), nil
	}
}

// Resolve returns the effective value of name for pkg. With a tool, the
// "<name>-<tool>" override is tried first; then the package setting, then the
// global one. The first tier holding a setting wins and weaker tiers are not
// inspected.
func (r *Resolver) Resolve(pkg string, env Environment, name string, tool Tool) (Value, error) {
	value, _, err := r.resolve(pkg, env, name, tool, false)
	return value, err
}

// ResolveWithTrace resolves like Resolve and reports every tier that was
// inspected.
func (r *Resolver) ResolveWithTrace(pkg string, env Environment, name string, tool Tool) (Value, Trace, error) {
	return r.resolve(pkg, env, name, tool, true)
}

func (r *Resolver) resolve(pkg string, env Environment, name string, tool Tool, withTrace bool) (Value, Trace, error) {
	trace := Trace{Package: pkg, Option: name, Tool: tool}
	for _, l := range plan(pkg, name, tool) {
		value, err := r.RawLookup(l.pkg, env, l.name)
		if withTrace {
			trace.Layers = append(trace.Layers, Provenance{
				Tier:   l.tier,
				Option: l.name,
				Keys:   OptionKeys(r.cfg.prefix, l.pkg, l.name),
				Value:  value,
				Found:  err == nil && !value.IsAbsent(),
			})
		}
		if err != nil {
			return Absent(), trace, err
		}
		if value.IsAbsent() {
			continue
		}
		r.traceResolved(env, l, value)
		trace.Winner = l.tier.Name
		return value, trace, nil
	}
	return Absent(), trace, nil
}

func (r *Resolver) traceResolved(env Environment, l lookup, value Value) {
	if l.pkg != "" {
		r.trace(env, ResolutionEvent{
			Stage:   StagePackage,
			Package: l.pkg,
			Option:  l.name,
			Value:   value,
			Message: fmt.Sprintf(" - npm package %s option %s = %s", l.pkg, l.name, value),
		})
		return
	}
	r.trace(env, ResolutionEvent{
		Stage:   StageGlobal,
		Option:  l.name,
		Value:   value,
		Message: fmt.Sprintf(" - npm option %s = %s", l.name, value),
	})
}
