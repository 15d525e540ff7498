package buildopts

import (
	"github.com/goliatone/go-buildopts/pkg/activity"
)

// Resolver resolves options from an Environment and renders them for meson and
// conan. It holds only configuration and is safe for concurrent use.
type Resolver struct {
	cfg     resolverConfig
	emitter *activity.Emitter
}

// Option configures a Resolver.
type Option func(*resolverConfig)

type resolverConfig struct {
	prefix         string
	verbosityKey   string
	quote          string
	mesonBlacklist []string
	equivalences   []Equivalence
	logger         Logger
	evalLogger     EvaluatorLogger
	evaluator      Evaluator
	programCache   ProgramCache
	functions      *FunctionRegistry
	activityHooks  activity.Hooks
	activityConfig activity.Config
}

// DefaultMesonBlacklist lists option names npm sets with its own meaning. They
// are never forwarded to meson.
func DefaultMesonBlacklist() []string {
	return []string{"prefix"}
}

func defaultConfig() resolverConfig {
	return resolverConfig{
		prefix:         DefaultPrefix,
		verbosityKey:   DefaultVerbosityKey,
		quote:          DefaultQuote(),
		mesonBlacklist: DefaultMesonBlacklist(),
		equivalences:   DefaultEquivalences(),
		activityConfig: activity.Config{Enabled: true, Channel: activity.DefaultChannel},
	}
}

// NewResolver builds a Resolver. Without options it reads the npm_config_*
// namespace and quotes values for the host platform.
func NewResolver(opts ...Option) *Resolver {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Resolver{
		cfg:     cfg,
		emitter: activity.NewEmitter(cfg.activityHooks, cfg.activityConfig),
	}
}

var defaultResolver = NewResolver()

// Resolve resolves name with the default Resolver.
func Resolve(pkg string, env Environment, name string, tool Tool) (Value, error) {
	return defaultResolver.Resolve(pkg, env, name, tool)
}

// WithPrefix sets the environment namespace, "npm_config" by default.
func WithPrefix(prefix string) Option {
	return func(cfg *resolverConfig) {
		if prefix != "" {
			cfg.prefix = prefix
		}
	}
}

// WithVerbosityKey sets the environment key that turns diagnostics on.
func WithVerbosityKey(key string) Option {
	return func(cfg *resolverConfig) {
		cfg.verbosityKey = key
	}
}

// WithQuote sets the quote wrapped around string values in rendered args.
func WithQuote(quote string) Option {
	return func(cfg *resolverConfig) {
		cfg.quote = quote
	}
}

// WithMesonBlacklist replaces the list of meson options that are never emitted.
func WithMesonBlacklist(names ...string) Option {
	return func(cfg *resolverConfig) {
		cfg.mesonBlacklist = append([]string(nil), names...)
	}
}

// WithEquivalences replaces the conan settings equivalence table.
func WithEquivalences(table ...Equivalence) Option {
	return func(cfg *resolverConfig) {
		cfg.equivalences = cloneEquivalences(table)
	}
}

// WithLogger attaches a diagnostics logger. When l also implements
// EvaluatorLogger it receives evaluation events too.
func WithLogger(l Logger) Option {
	return func(cfg *resolverConfig) {
		cfg.logger = l
		if el, ok := l.(EvaluatorLogger); ok && cfg.evalLogger == nil {
			cfg.evalLogger = el
		}
	}
}

// WithEvaluatorLogger attaches an evaluator logger.
func WithEvaluatorLogger(l EvaluatorLogger) Option {
	return func(cfg *resolverConfig) {
		cfg.evalLogger = l
	}
}

// WithEvaluator sets the engine used by Condition.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *resolverConfig) {
		cfg.evaluator = e
	}
}

// WithActivityHooks attaches activity hooks notified when args are rendered.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *resolverConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides the activity emitter configuration.
func WithActivityConfig(ac activity.Config) Option {
	return func(cfg *resolverConfig) {
		cfg.activityConfig = ac
	}
}

// Prefix returns the configured environment namespace.
func (r *Resolver) Prefix() string {
	return r.cfg.prefix
}

// Quote returns the quote used for string values.
func (r *Resolver) Quote() string {
	return r.cfg.quote
}

// Verbose reports whether env asks for diagnostics.
func (r *Resolver) Verbose(env Environment) bool {
	return r.cfg.verbosityKey != "" && env.Lookup(r.cfg.verbosityKey) != ""
}

func (r *Resolver) logger() Logger {
	if r.cfg.logger != nil {
		return r.cfg.logger
	}
	return NewSlogLogger(nil)
}

func (r *Resolver) evaluatorLogger() EvaluatorLogger {
	if r.cfg.evalLogger != nil {
		return r.cfg.evalLogger
	}
	return noopLogger{}
}

func (r *Resolver) trace(env Environment, event ResolutionEvent) {
	if !r.Verbose(env) {
		return
	}
	r.logger().LogResolution(event)
}
