package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moolen/vigil/internal/logging"
)

const defaultShutdownTimeout = 30 * time.Second

// Manager starts components in dependency order and stops them in reverse.
// A failed startup rolls back every component that already started.
type Manager struct {
	components      []Component
	dependencies    map[Component][]Component
	running         map[Component]bool
	started         []Component // startup order, used for reverse shutdown
	shutdownTimeout time.Duration
	mu              sync.RWMutex
	opMu            sync.Mutex // serializes Register/Start/Stop
	logger          *logging.Logger
}

// NewManager creates a lifecycle manager with the default shutdown timeout.
func NewManager() *Manager {
	return &Manager{
		dependencies:    make(map[Component][]Component),
		running:         make(map[Component]bool),
		shutdownTimeout: defaultShutdownTimeout,
		logger:          logging.GetLogger("lifecycle.manager"),
	}
}

// Register adds a component. Dependencies must already be registered; the
// component starts only after all of them and stops before any of them.
func (m *Manager) Register(component Component, dependsOn ...Component) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if component == nil {
		return fmt.Errorf("cannot register nil component")
	}
	if component.Name() == "" {
		return fmt.Errorf("component must have a non-empty name")
	}

	for _, c := range m.components {
		if c == component {
			return fmt.Errorf("component %s is already registered", component.Name())
		}
	}

	for _, dep := range dependsOn {
		registered := false
		for _, c := range m.components {
			if c == dep {
				registered = true
				break
			}
		}
		if !registered {
			return fmt.Errorf("dependency %s is not registered", dep.Name())
		}
	}

	if m.wouldCreateCycle(component, dependsOn) {
		return fmt.Errorf("registering %s would create a circular dependency", component.Name())
	}

	m.components = append(m.components, component)
	m.dependencies[component] = dependsOn
	m.running[component] = false

	m.logger.Debug("Registered component %s with %d dependencies", component.Name(), len(dependsOn))
	return nil
}

func (m *Manager) wouldCreateCycle(component Component, dependsOn []Component) bool {
	visited := make(map[Component]bool)
	return m.reaches(component, dependsOn, visited)
}

// reaches reports whether target is reachable by following dependency edges
// from deps.
func (m *Manager) reaches(target Component, deps []Component, visited map[Component]bool) bool {
	for _, dep := range deps {
		if dep == target {
			return true
		}
		if visited[dep] {
			continue
		}
		visited[dep] = true
		if m.reaches(target, m.dependencies[dep], visited) {
			return true
		}
	}
	return false
}

// Start starts all registered components in dependency order. If any
// component fails, the ones already started are stopped in reverse order
// and the startup error is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.started = nil

	for _, component := range m.startOrder() {
		m.logger.Info("Starting %s", component.Name())
		begin := time.Now()

		if err := component.Start(ctx); err != nil {
			m.logger.Error("Failed to start %s: %v", component.Name(), err)
			m.rollback()
			return fmt.Errorf("initialization failed for %s: %w", component.Name(), err)
		}

		m.mu.Lock()
		m.running[component] = true
		m.started = append(m.started, component)
		m.mu.Unlock()

		m.logger.Info("%s started successfully (took %dms)", component.Name(), time.Since(begin).Milliseconds())
	}

	m.logger.Info("All components started successfully")
	return nil
}

// startOrder returns components topologically sorted, dependencies first.
func (m *Manager) startOrder() []Component {
	visited := make(map[Component]bool)
	var sorted []Component

	var visit func(Component)
	visit = func(c Component) {
		visited[c] = true
		for _, dep := range m.dependencies[c] {
			if !visited[dep] {
				visit(dep)
			}
		}
		sorted = append(sorted, c)
	}

	for _, c := range m.components {
		if !visited[c] {
			visit(c)
		}
	}
	return sorted
}

// rollback stops components started during a failed startup attempt, in
// reverse startup order.
func (m *Manager) rollback() {
	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		m.logger.Debug("Rolling back: stopping %s", component.Name())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := component.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping %s during rollback: %v", component.Name(), err)
		}
		cancel()

		m.mu.Lock()
		m.running[component] = false
		m.mu.Unlock()
	}
}

// Stop stops all started components in reverse startup order. Each
// component gets its own shutdown-timeout deadline. Stop errors are logged
// but never returned, so one misbehaving component cannot block the rest.
func (m *Manager) Stop(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.logger.Info("Stopping all components")

	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		if !m.IsRunning(component) {
			continue
		}

		m.logger.Info("Stopping %s", component.Name())
		begin := time.Now()

		componentCtx, cancel := context.WithTimeout(ctx, m.shutdownTimeout)
		err := component.Stop(componentCtx)
		cancel()

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			m.logger.Warn("Component %s exceeded grace period (%dms timeout), forcing termination",
				component.Name(), m.shutdownTimeout.Milliseconds())
		case err != nil:
			m.logger.Error("Error stopping %s: %v", component.Name(), err)
		default:
			m.logger.Info("%s stopped successfully (took %dms)", component.Name(), time.Since(begin).Milliseconds())
		}

		m.mu.Lock()
		m.running[component] = false
		m.mu.Unlock()
	}

	m.logger.Info("All components stopped")
	return nil
}

// IsRunning returns true if the component started and has not stopped.
func (m *Manager) IsRunning(component Component) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running[component]
}

// SetShutdownTimeout sets the per-component grace period for Stop.
func (m *Manager) SetShutdownTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownTimeout = timeout
}
