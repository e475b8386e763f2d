package main

import (
	ada "github.com/adafoundation/adawallet/pkg"
	"github.com/adafoundation/adawallet/pkg/node"
	"github.com/adafoundation/adawallet/pkg/receivers"
	"github.com/adafoundation/adawallet/pkg/store"
	"github.com/adafoundation/adawallet/pkg/webapi"
	"github.com/tjstebbing/conductor"
)

func Server(conf ada.Config) {

	c := conductor.New(
		conductor.HookSignals(),
		conductor.Noisy(),
	)

	// Start the MessageBus Service
	bus := ada.NewMessageBus()
	c.Service("MessageBus", bus)

	// Set up all configured receivers
	receivers.SetUpReceivers(c, bus, conf)

	// Set up the L1 interface to the Cardano node
	l1, err := node.NewCardanoCLI(conf)
	if err != nil {
		panic(err)
	}

	// Setup a Store
	db, err := store.NewSQLiteStore(conf.Store.DBFile)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	api := ada.NewAPI(db, l1, bus, conf)

	// Start the Wallet API
	p, err := webapi.NewWebAPI(conf, api)
	if err != nil {
		panic(err)
	}
	c.Service("Wallet API", p)

	bus.Send(ada.SYS_STARTUP, "adawallet starting")

	<-c.Start()
}
