package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldBuildingID  = "building_id"
	FieldApartmentID = "apartment_id"
	FieldMonth       = "month"
	FieldAmountCents = "amount_cents"
	FieldCategoryID  = "category_id"
	FieldRecordID    = "record_id"
	FieldWarnings    = "warnings"
	FieldCacheHit    = "cache_hit"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentEngine    = "engine"
	ComponentStatement = "statement"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentCache     = "cache"
	ComponentRecurring = "recurring"
	ComponentTrace     = "trace"
)

// Operations defines standard operation names
const (
	OpCompute  = "compute"
	OpRecord   = "record"
	OpList     = "list"
	OpExport   = "export"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
