package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldSuccess     = "success"
	FieldDuration    = "duration_ms"
	FieldID          = "id"
	FieldTempID      = "temp_id"
	FieldField       = "field"
	FieldPeriod      = "period"
	FieldSeq         = "seq"
	FieldCount       = "count"
	FieldTotal       = "total"
	FieldName        = "name"
	FieldAmount      = "amount"
	FieldAccount     = "account"
	FieldCategory    = "category"
	FieldEventKind   = "event_kind"
	FieldSheetRow    = "sheet_row"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentGrid    = "grid"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentTUI     = "tui"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpUpload   = "upload"
	OpRefetch  = "refetch"
	OpSave     = "save"
	OpToggle   = "toggle_cleared"
	OpSync     = "sync"
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

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
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

// WithRecord adds record identity fields
func (f LogFields) WithRecord(id string, field string) LogFields {
	f[FieldID] = id
	if field != "" {
		f[FieldField] = field
	}
	return f
}

// WithPeriod adds the statement period and fetch sequence
func (f LogFields) WithPeriod(period string, seq uint64) LogFields {
	f[FieldPeriod] = period
	f[FieldSeq] = seq
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
