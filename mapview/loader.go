package mapview

import (
	"context"
	"log"
	"sync"
)

// ProviderFactory performs the one-time provider initialization (in the
// browser embedding, injecting the SDK script and waiting for its callback).
type ProviderFactory func(ctx context.Context) (Provider, error)

// Loader gates access to a lazily initialized mapping provider. The load runs
// at most once regardless of how many components call Ensure; everyone waits
// on the same ready signal instead of re-triggering the script insert.
type Loader struct {
	mu       sync.Mutex
	once     sync.Once
	ready    chan struct{}
	factory  ProviderFactory
	provider Provider
	err      error
}

// NewLoader returns a Loader around the given factory. If a provider is
// already present in the environment, pass it via NewLoaderWithProvider and
// the factory is never invoked.
func NewLoader(factory ProviderFactory) *Loader {
	return &Loader{factory: factory, ready: make(chan struct{})}
}

// NewLoaderWithProvider wraps an already-loaded provider; Ensure is then an
// immediate no-op.
func NewLoaderWithProvider(p Provider) *Loader {
	l := &Loader{provider: p, ready: make(chan struct{})}
	close(l.ready)
	return l
}

// Ensure idempotently kicks off the provider load and returns a channel that
// closes once the provider is ready (or the load failed; check Provider).
func (l *Loader) Ensure(ctx context.Context) <-chan struct{} {
	l.once.Do(func() {
		select {
		case <-l.ready:
			// Pre-seeded provider, nothing to load.
			return
		default:
		}
		go func() {
			p, err := l.factory(ctx)
			l.mu.Lock()
			l.provider = p
			l.err = err
			l.mu.Unlock()
			if err != nil {
				log.Printf("Map provider load failed: %v", err)
			}
			close(l.ready)
		}()
	})
	return l.ready
}

// Provider returns the loaded provider, or the load error. Only meaningful
// after the Ensure channel has closed.
func (l *Loader) Provider() (Provider, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.provider, l.err
}
