package lifecycle

import "context"

// Component is implemented by everything the lifecycle manager starts and
// stops: the API server, the data watcher and the tracing provider.
type Component interface {
	// Start initializes and starts the component. It must be safe to call
	// more than once.
	Start(ctx context.Context) error

	// Stop gracefully stops the component. In-flight operations should
	// finish within the context deadline. A Stop error never prevents
	// other components from stopping.
	Stop(ctx context.Context) error

	// Name returns a non-empty, human-readable component name used in
	// logs and error messages.
	Name() string
}
