package inject

import "context"

// Injector is the capability contract one delivery method implements.
// Attempt must respect ctx cancellation end to end: subprocess and bus
// round-trips run under the caller's per-stage timeout, never as
// unbounded blocking calls. Failures are self-classified via AttemptError.
//
// For clipboard-based methods the manager seeds the clipboard (inside a
// guard) before calling Attempt; the injector only triggers the paste.
type Injector interface {
	Method() Method
	Attempt(ctx context.Context, text string, ic *Context) *AttemptError
}

// Warmer is implemented by injectors that can hide session-setup latency
// by performing capability detection before any text is ready.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Registry maps available methods to their injectors, in platform order.
type Registry struct {
	injectors map[Method]Injector
	order     []Method
	desktop   Desktop
}

// NewRegistry builds a registry from detected injectors. The base order
// is the platform-preferred order filtered to what is actually available.
func NewRegistry(desktop Desktop, injectors []Injector) *Registry {
	byMethod := make(map[Method]Injector, len(injectors))
	for _, inj := range injectors {
		byMethod[inj.Method()] = inj
	}

	order := make([]Method, 0, len(injectors))
	for _, m := range BaseOrder(desktop) {
		if _, ok := byMethod[m]; ok {
			order = append(order, m)
		}
	}
	// Injectors outside the platform's base order (e.g. an enabled NoOp)
	// rank last.
	for _, inj := range injectors {
		if !containsMethod(order, inj.Method()) {
			order = append(order, inj.Method())
		}
	}

	return &Registry{injectors: byMethod, order: order, desktop: desktop}
}

// Injector returns the injector registered for m.
func (r *Registry) Injector(m Method) (Injector, bool) {
	inj, ok := r.injectors[m]
	return inj, ok
}

// Order returns the availability-filtered base method order.
func (r *Registry) Order() []Method {
	out := make([]Method, len(r.order))
	copy(out, r.order)
	return out
}

// Desktop returns the platform classification the registry was built for.
func (r *Registry) Desktop() Desktop { return r.desktop }

// Remediations collects per-method remediation hints from fatal-capable
// injectors that expose them.
func (r *Registry) Remediations() map[Method]string {
	out := make(map[Method]string)
	for m, inj := range r.injectors {
		if h, ok := inj.(interface{ Remediation() string }); ok {
			if s := h.Remediation(); s != "" {
				out[m] = s
			}
		}
	}
	return out
}

func containsMethod(methods []Method, m Method) bool {
	for _, have := range methods {
		if have == m {
			return true
		}
	}
	return false
}
