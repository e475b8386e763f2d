package receivers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ada "github.com/adafoundation/adawallet/pkg"
	"github.com/tjstebbing/conductor"
)

// The upstream conductor must satisfy the registry interface that
// SetUpReceivers accepts.
var _ ServiceRegistry = conductor.New()

type stubRegistry struct {
	names    []string
	services []conductor.Service
}

func (r *stubRegistry) Service(name string, service conductor.Service) {
	r.names = append(r.names, name)
	r.services = append(r.services, service)
}

func TestSetUpReceiversRegistersLoggers(t *testing.T) {
	conf := ada.TestConfig()
	logPath := filepath.Join(t.TempDir(), "events.log")
	conf.Loggers = map[string]ada.LoggersConfig{
		"events": {Path: logPath, Types: []string{"TX", "BOGUS"}},
	}
	bus := ada.NewMessageBus()

	reg := &stubRegistry{}
	SetUpReceivers(reg, bus, conf)
	if len(reg.services) != 1 {
		t.Fatalf("expected 1 registered service, got %d", len(reg.services))
	}
	if reg.names[0] != "EventLog events" {
		t.Fatalf("unexpected service name: %s", reg.names[0])
	}

	logger, ok := reg.services[0].(MessageLogger)
	if !ok {
		t.Fatalf("registered service is not a MessageLogger")
	}

	started := make(chan bool)
	stopped := make(chan bool)
	stop := make(chan context.Context)
	if err := logger.Run(started, stopped, stop); err != nil {
		t.Fatalf("Run: %v", err)
	}
	<-started

	logger.GetChan() <- ada.Message{
		EventType: ada.TX_SUBMITTED,
		Message:   []byte(`{"tx_id":"feed"}`),
		ID:        "abcd1234",
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		data, _ := os.ReadFile(logPath)
		if strings.Contains(string(data), "TX.SUBMITTED id=abcd1234") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("event never reached log file, contents: %q", data)
		}
		time.Sleep(10 * time.Millisecond)
	}

	stop <- context.Background()
	<-stopped
}

func TestEventTypesDropsUnknownNames(t *testing.T) {
	types := eventTypes("test", []string{"TX", "NOPE", "SYS"})
	if len(types) != 2 {
		t.Fatalf("expected 2 event types, got %d", len(types))
	}
	if types[0].Type() != "TX" || types[1].Type() != "SYS" {
		t.Fatalf("unexpected event types: %v", types)
	}
}
