package compiler

import (
	"context"
	"embed"
	"log/slog"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"golang.org/x/sync/singleflight"

	"signet/internal/policy"
	dErrors "signet/pkg/domain-errors"
)

//go:embed rego/criteria.rego rego/main.rego
var coreLibrary embed.FS

// CoreLibrary returns the static predicate library the compiler links every
// bundle against. It is a fixed, versioned asset, not regenerated per compile.
func CoreLibrary() map[string]string {
	lib := make(map[string]string, 2)
	for _, name := range []string{"rego/criteria.rego", "rego/main.rego"} {
		raw, err := coreLibrary.ReadFile(name)
		if err != nil {
			panic("compiler: embedded core library missing " + name)
		}
		lib[name] = string(raw)
	}
	return lib
}

// Bundle is a compiled, loadable policy-set artifact. It owns the compiled
// program explicitly; callers pass it to the runtime, there is no ambient
// loaded-bundle singleton.
type Bundle struct {
	Fingerprint string
	compiled    *ast.Compiler
}

// Compiled exposes the program for the evaluation runtime.
func (b *Bundle) Compiled() *ast.Compiler {
	return b.compiled
}

// Builder turns rendered rule-source modules into an executable program. It is
// injected so tests can substitute an in-memory fake for the real toolchain.
type Builder interface {
	Build(ctx context.Context, modules map[string]string) (*ast.Compiler, error)
}

// RegoBuilder is the production Builder backed by OPA's compiler.
type RegoBuilder struct{}

func (RegoBuilder) Build(_ context.Context, modules map[string]string) (*ast.Compiler, error) {
	compiled, err := ast.CompileModules(modules)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeCompilation, "build policy bundle", err)
	}
	return compiled, nil
}

// Metrics is the observability hook the engine wires in.
type Metrics interface {
	ObserveCompileLatency(d time.Duration)
	IncBundleCacheHit()
	IncBundleCacheMiss()
}

// Compiler transpiles policy sets into bundles. Bundles are cached by the
// set's content hash; concurrent compilations of the same fingerprint are
// collapsed to a single in-flight build.
type Compiler struct {
	builder Builder
	library map[string]string
	logger  *slog.Logger
	metrics Metrics

	mu    sync.RWMutex
	cache map[string]*Bundle
	group singleflight.Group
}

type Option func(*Compiler)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// WithCoreLibrary overrides the embedded predicate library. This is the
// configuration hook for hosts that ship their own library build.
func WithCoreLibrary(lib map[string]string) Option {
	return func(c *Compiler) {
		c.library = lib
	}
}

func New(builder Builder, opts ...Option) *Compiler {
	c := &Compiler{
		builder: builder,
		library: CoreLibrary(),
		cache:   make(map[string]*Bundle),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Compile returns the bundle for the policy set, building it at most once per
// fingerprint. Build failures surface with the underlying cause attached and
// never degrade to an empty bundle.
func (c *Compiler) Compile(ctx context.Context, set policy.Set) (*Bundle, error) {
	set.AssignIDs()

	fingerprint, err := set.Fingerprint()
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	cached, ok := c.cache[fingerprint]
	c.mu.RUnlock()
	if ok {
		if c.metrics != nil {
			c.metrics.IncBundleCacheHit()
		}
		return cached, nil
	}

	v, err, _ := c.group.Do(fingerprint, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.cache[fingerprint]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		return c.build(ctx, set, fingerprint)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

func (c *Compiler) build(ctx context.Context, set policy.Set, fingerprint string) (*Bundle, error) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.IncBundleCacheMiss()
	}

	source, err := Render(set)
	if err != nil {
		return nil, err
	}

	modules := make(map[string]string, len(c.library)+1)
	for name, src := range c.library {
		modules[name] = src
	}
	modules["policies.rego"] = source

	compiled, err := c.builder.Build(ctx, modules)
	if err != nil {
		if c.logger != nil {
			c.logger.ErrorContext(ctx, "policy bundle build failed",
				"fingerprint", fingerprint,
				"policies", len(set),
				"error", err,
			)
		}
		return nil, err
	}

	bundle := &Bundle{Fingerprint: fingerprint, compiled: compiled}
	c.mu.Lock()
	c.cache[fingerprint] = bundle
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ObserveCompileLatency(time.Since(start))
	}
	if c.logger != nil {
		c.logger.DebugContext(ctx, "policy bundle compiled",
			"fingerprint", fingerprint,
			"policies", len(set),
			"duration", time.Since(start),
		)
	}
	return bundle, nil
}
