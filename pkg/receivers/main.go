package receivers

import (
	ada "github.com/adafoundation/adawallet/pkg"
	"github.com/tjstebbing/conductor"
)

// ServiceRegistry is the subset of the conductor that receivers need:
// the upstream library keeps its conductor type unexported, so callers
// hand us anything with its Service method.
type ServiceRegistry interface {
	Service(name string, service conductor.Service)
}

// Sets up standard receivers.
func SetUpReceivers(cond ServiceRegistry, bus ada.MessageBus, conf ada.Config) {
	// Set up configured loggers
	SetupLoggers(cond, bus, conf)
}
