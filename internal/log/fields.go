package log

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"

	FieldGoalID       = "goal_id"
	FieldGoalName     = "goal_name"
	FieldTargetAmount = "target_amount"
	FieldBalance      = "balance"
	FieldEventKind    = "event_kind"
	FieldMessageID    = "message_id"
	FieldSheetRow     = "sheet_row"
	FieldRevision     = "revision"
	FieldCount        = "count"
)

const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentGoal    = "goal"
	ComponentForm    = "form"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
)

const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpRead     = "read"
	OpList     = "list"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpExport   = "export"
	OpValidate = "validate"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields builds slog key/value pairs.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError is a no-op for a nil err.
func (f LogFields) WithError(err error, errorType string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = errorType
	}
	return f
}

func (f LogFields) WithRequestID(id string) LogFields {
	f[FieldRequestID] = id
	return f
}

// WithGoal adds the identifying and amount fields of a goal. Amounts are
// passed preformatted so this package stays free of domain types.
func (f LogFields) WithGoal(id, name, target, balance string) LogFields {
	f[FieldGoalID] = id
	if name != "" {
		f[FieldGoalName] = name
	}
	if target != "" {
		f[FieldTargetAmount] = target
	}
	if balance != "" {
		f[FieldBalance] = balance
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(status int, durationMs int64) LogFields {
	f[FieldStatusCode] = status
	f[FieldDuration] = durationMs
	f[FieldSuccess] = status < 400
	return f
}

// ToSlice converts the fields to slog arguments, in no particular order.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
