package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldOwner      = "owner"
	FieldCurrency   = "currency"
	FieldIncomeID   = "income_id"
	FieldTemplateID = "template_id"
	FieldTakeHome   = "take_home"
	FieldTxID       = "transaction_id"
	FieldAmount     = "amount"
	FieldServiceID  = "service_id"
	FieldEventID    = "event_id"
	FieldSheetRange = "sheet_range"
)

// Components
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentIncome     = "income"
	ComponentTemplate   = "template"
	ComponentInvestment = "investment"
	ComponentVehicle    = "vehicle"
	ComponentReport     = "report"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentScheduler  = "scheduler"
	ComponentSheets     = "sheets"
	ComponentExport     = "export"
	ComponentCache      = "cache"
	ComponentSecurity   = "security"
	ComponentRateLimit  = "rate_limit"
	ComponentBackend    = "backend"
	ComponentPresenter  = "presenter"
)

// Operations
const (
	OpCreate      = "create"
	OpRead        = "read"
	OpUpdate      = "update"
	OpList        = "list"
	OpInstantiate = "instantiate"
	OpSummarize   = "summarize"
	OpExport      = "export"
	OpValidate    = "validate"
	OpRender      = "render"
	OpShutdown    = "shutdown"
	OpStartup     = "startup"
)

// Error categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields builds key/value pairs for slog.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithIncome adds the identifying fields of an income record.
func (f LogFields) WithIncome(id int64, owner, currency, takeHome string) LogFields {
	f[FieldIncomeID] = id
	f[FieldOwner] = owner
	f[FieldCurrency] = currency
	f[FieldTakeHome] = takeHome
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens the fields for slog.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
