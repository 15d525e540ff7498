package buildopts

// OptionEnabled reports whether name resolves, without a tool suffix, to an
// enabled flag or a non-empty string. It backs the ifNpmOption directive.
func (r *Resolver) OptionEnabled(pkg string, env Environment, name string) (bool, error) {
	val, err := r.Resolve(pkg, env, name, ToolNone)
	if err != nil {
		return false, err
	}
	return val.Truthy(), nil
}

// OptionDisabled is the complement of OptionEnabled: true for a disabled flag
// or an absent option.
func (r *Resolver) OptionDisabled(pkg string, env Environment, name string) (bool, error) {
	enabled, err := r.OptionEnabled(pkg, env, name)
	if err != nil {
		return false, err
	}
	return !enabled, nil
}
