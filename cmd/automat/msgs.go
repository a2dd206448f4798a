package automat

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort      = "An event-driven record automation engine"
	MsgRootLong       = "automat runs automation handlers around record writes: before-phase\nhooks that can mutate or abort a save, after-phase hooks that react to\nit, and manual actions invoked on a record from the UI or the CLI."
	MsgTriggersShort  = "List registered trigger declarations"
	MsgHandlersShort  = "List registered handlers"
	MsgRecordsShort   = "Inspect stored records"
	MsgListShort      = "List records of a kind"
	MsgGetShort       = "Show one record"
	MsgCreateShort    = "Create a record through the lifecycle hooks"
	MsgFireShort      = "Invoke a manual action on a record"
	MsgGenconfigShort = "Print the effective configuration as TOML"
	MsgVersionShort   = "Print version information"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig    = "Config file (default is the XDG automat/automat.toml)"
	MsgFlagNamespace = "Record namespace"
	MsgFlagFilter    = "Filter expression, e.g. \"Status = New AND Priority != Low\""
	MsgFlagSet       = "Field to set, as Field=Value (repeatable)"

	// Status messages
	MsgNoTriggers = "No triggers registered."
	MsgNoRecords  = "No records found."
	MsgCreated    = "Created %s record %s\n"
)
