package receivers

import (
	"context"
	"fmt"
	"log"

	ada "github.com/adafoundation/adawallet/pkg"
	"gopkg.in/natefinch/lumberjack.v2"
)

// MessageLogger appends bus events to a size-rotated log file, one
// line per event: category.event id=... payload.
type MessageLogger struct {
	events chan ada.Message
	log    *log.Logger
}

func NewMessageLogger(conf ada.LoggersConfig) MessageLogger {
	out := &lumberjack.Logger{
		Filename:   conf.Path,
		MaxSize:    10, // megabytes per file
		MaxBackups: 5,
		Compress:   true,
	}
	return MessageLogger{
		events: make(chan ada.Message, 1000),
		log:    log.New(out, "", log.LstdFlags|log.Lmicroseconds|log.LUTC),
	}
}

// Implements ada.MessageSubscriber
func (l MessageLogger) GetChan() chan ada.Message {
	return l.events
}

// Implements conductor.Service
func (l MessageLogger) Run(started, stopped chan bool, stop chan context.Context) error {
	go func() {
		started <- true
		for {
			select {
			case <-stop:
				close(l.events)
				close(stopped)
				return
			case msg := <-l.events:
				l.log.Printf("%s.%s id=%s %s",
					msg.EventType.Type(), msg.EventType, msg.ID, msg.Message)
			}
		}
	}()
	return nil
}

// Reads config and sets up any configured loggers
func SetupLoggers(cond ServiceRegistry, bus ada.MessageBus, conf ada.Config) {
	for name, c := range conf.Loggers {
		l := NewMessageLogger(c)
		cond.Service(fmt.Sprintf("EventLog %s", name), l)
		bus.Register(l, eventTypes(name, c.Types)...)
	}
}

// eventTypes resolves configured type names against the known event
// categories, dropping (and reporting) anything unrecognised.
func eventTypes(logger string, names []string) []ada.EventType {
	types := []ada.EventType{}
	for _, n := range names {
		match := false
		for _, t := range ada.EVENT_TYPES {
			if n == t.Type() {
				types = append(types, t)
				match = true
				break
			}
		}
		if !match {
			fmt.Printf("⚠️  Logger %s: ignoring invalid message type: %s\n", logger, n)
		}
	}
	return types
}
