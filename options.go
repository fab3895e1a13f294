package qactive

// kernelOptions holds configuration resolved from KernelOption values.
type kernelOptions struct {
	logger       Logger
	hook         TraceHook
	maxNestDepth int
	maxPriority  int
}

// KernelOption configures a Kernel instance.
type KernelOption interface {
	applyKernel(*kernelOptions)
}

type kernelOptionFunc func(*kernelOptions)

func (f kernelOptionFunc) applyKernel(opts *kernelOptions) { f(opts) }

// WithLogger attaches a Logger to the kernel. Defaults to the package-level
// logger configured via SetStructuredLogger (a NoOpLogger if none was set).
func WithLogger(logger Logger) KernelOption {
	return kernelOptionFunc(func(opts *kernelOptions) {
		opts.logger = logger
	})
}

// WithTraceHook attaches a TraceHook (see package trace) that is notified
// of dispatch, transition, post, publish, tick, and exhaustion events.
func WithTraceHook(hook TraceHook) KernelOption {
	return kernelOptionFunc(func(opts *kernelOptions) {
		opts.hook = hook
	})
}

// WithMaxNestDepth records an HSM path-buffer depth on the kernel (default
// 6, per spec §4.4). The value is not applied to HSMs: each HSM's depth is
// the maxNestDepth argument given to NewHSM, and nesting deeper than that
// is a fatal path-buffer-overflow assertion.
func WithMaxNestDepth(depth int) KernelOption {
	return kernelOptionFunc(func(opts *kernelOptions) {
		opts.maxNestDepth = depth
	})
}

// WithMaxPriority overrides the default maximum AO priority (64, per
// spec §3's "indexed 1..64").
func WithMaxPriority(n int) KernelOption {
	return kernelOptionFunc(func(opts *kernelOptions) {
		opts.maxPriority = n
	})
}

func resolveKernelOptions(opts []KernelOption) *kernelOptions {
	cfg := &kernelOptions{
		logger:       getGlobalLogger(),
		hook:         noopTraceHook{},
		maxNestDepth: MaxNestDepth,
		maxPriority:  MaxPriority,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyKernel(cfg)
	}
	return cfg
}
