package logging

import "go.uber.org/zap"

// New returns the global sugared logger scoped to a component name, so background
// workers (hub, scheduler) can be told apart in the log stream.
func New(component string) *zap.SugaredLogger {
	return zap.S().Named(component)
}
