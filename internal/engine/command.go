package engine

// CommandKind enumerates the closed command vocabulary.
type CommandKind int

const (
	CommandInitialize CommandKind = iota
	CommandRead
	CommandExecute
	CommandRun
	CommandMigrate
	CommandVacuum
	CommandClose
)

// String returns the command kind name for logs and trace attributes.
func (k CommandKind) String() string {
	switch k {
	case CommandInitialize:
		return "initialize"
	case CommandRead:
		return "read"
	case CommandExecute:
		return "execute"
	case CommandRun:
		return "run"
	case CommandMigrate:
		return "migrate"
	case CommandVacuum:
		return "vacuum"
	case CommandClose:
		return "close"
	}
	return "unknown"
}

// Command is one typed unit of work. Text carries the raw statement for
// Read, Execute and Run; Bindings parameterize Read and Run; Columns
// declares the result row layout and is consulted only for Read.
type Command struct {
	Kind     CommandKind
	Text     string
	Bindings []Binding
	Columns  []ColumnType
}

// Transaction is an ordered, atomically-applied batch of commands plus the
// target schema version metadata used by Initialize and Migrate. It is
// consumed exactly once and not reused.
type Transaction struct {
	Commands          []Command
	Version           int32
	CompatibleVersion int32
}

// Status is the terminal outcome of a transaction.
type Status int

const (
	StatusOK Status = iota
	StatusInitializationError
	StatusTransactionError
	StatusCommandError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInitializationError:
		return "initialization_error"
	case StatusTransactionError:
		return "transaction_error"
	case StatusCommandError:
		return "command_error"
	}
	return "unknown"
}

// CommandResult carries either a scalar value (Initialize) or an ordered
// list of records (Read). Only one field is set.
type CommandResult struct {
	Value   *Value
	Records []Record
}

// CommandResponse is the terminal outcome of one transaction. It is
// created fresh per transaction and immutable once returned.
type CommandResponse struct {
	Status Status
	Result *CommandResult
}
