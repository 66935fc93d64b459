// Package testkit provides fixtures for end-to-end tests: document corpora,
// flag sets and an SSE server that can be started as part of a test
// environment.
package testkit

// Service represents a test service that can be started and stopped
type Service interface {
	Start() (map[string]any, error)
	Stop() error
	GetName() string
}

// TestEnvContext provides access to properties collected during environment startup
type TestEnvContext interface {
	GetProperties() map[string]any
	GetProperty(name string) (any, bool)
}

// TestEnv manages the lifecycle of test services
type TestEnv interface {
	Start() (map[string]any, error)
	Stop() error
	GetContext() TestEnvContext
}

type testEnvContext struct {
	properties map[string]any
}

func (c *testEnvContext) GetProperties() map[string]any {
	return c.properties
}

func (c *testEnvContext) GetProperty(name string) (any, bool) {
	val, ok := c.properties[name]
	return val, ok
}

type testEnv struct {
	services []Service
	started  []Service
	context  *testEnvContext
}

// NewTestEnv creates a new test environment with the given services
func NewTestEnv(services ...Service) TestEnv {
	return &testEnv{
		services: services,
		context:  &testEnvContext{properties: make(map[string]any)},
	}
}

// Start starts the services in order. If one fails, the ones already
// started are stopped again.
func (e *testEnv) Start() (map[string]any, error) {
	for _, s := range e.services {
		props, err := s.Start()
		if err != nil {
			_ = e.Stop()
			return nil, err
		}
		e.started = append(e.started, s)
		for k, v := range props {
			e.context.properties[k] = v
		}
	}
	return e.context.properties, nil
}

// Stop stops the started services in reverse order and returns the last error.
func (e *testEnv) Stop() error {
	var lastErr error
	for i := len(e.started) - 1; i >= 0; i-- {
		if err := e.started[i].Stop(); err != nil {
			lastErr = err
		}
	}
	e.started = nil
	return lastErr
}

func (e *testEnv) GetContext() TestEnvContext {
	return e.context
}
