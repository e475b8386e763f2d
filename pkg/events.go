package ada

// Adawallet event types

// bus.Send(TX_SUBMITTED, txn)
// bus.Send(WAL_CREATED, wallet.GetPublicInfo())

// Interface for any event
type EventType interface {
	Type() string
}

// slice of all event types for config funcs lookup
var EVENT_TYPES []EventType = []EventType{EVENT_ALL("ALL"),
	EVENT_SYS("SYS"),
	EVENT_WAL("WAL"),
	EVENT_TX("TX")}

// Special category, do not use directly, represents *
type EVENT_ALL string

func (e EVENT_ALL) Type() string {
	return "ALL"
}

// System Events
type EVENT_SYS string

func (e EVENT_SYS) Type() string {
	return "SYS"
}

const (
	SYS_STARTUP EVENT_SYS = "STARTUP"
	SYS_ERR     EVENT_SYS = "ERR"
	SYS_MSG     EVENT_SYS = "MSG"
)

// Wallet Events
type EVENT_WAL string

func (e EVENT_WAL) Type() string {
	return "WAL"
}

const (
	WAL_CREATED EVENT_WAL = "CREATED"
)

// Transaction Events
type EVENT_TX string

func (e EVENT_TX) Type() string {
	return "TX"
}

const (
	TX_SUBMITTED      EVENT_TX = "SUBMITTED"
	TX_FAILED         EVENT_TX = "FAILED"
	TX_MINTED         EVENT_TX = "MINTED"
	TX_POLICY_CREATED EVENT_TX = "POLICY_CREATED"
)
