package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldIntent        = "intent"
	FieldTransactionID = "transaction_id"
	FieldLocalID       = "local_id"
	FieldOriginID      = "origin_id"
	FieldPendingID     = "pending_id"
	FieldPayer         = "payer"
	FieldAmount        = "amount"
	FieldMonth         = "month"
	FieldClientID      = "client_id"
	FieldEventType     = "event_type"
	FieldMembers       = "member_ids"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentLedger     = "ledger"
	ComponentStorage    = "storage"
	ComponentEvents     = "events"
	ComponentSettlement = "settlement"
	ComponentFees       = "fees"
	ComponentMatching   = "matching"
	ComponentBackend    = "backend"
)

// Operations defines standard operation names
const (
	OpInsert   = "insert"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSettle   = "mark_settled"
	OpPublish  = "publish"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithIntent adds the intent of a failed store command
func (f LogFields) WithIntent(intent string) LogFields {
	f[FieldIntent] = intent
	return f
}

// WithTransaction adds the transaction id field; zero ids are skipped
func (f LogFields) WithTransaction(id int64) LogFields {
	if id != 0 {
		f[FieldTransactionID] = id
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
