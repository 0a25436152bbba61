package constants

// HTTP surface constants. The tenant id is injected by the gateway after it
// has authenticated the caller; this service trusts the header as-is.
const (
	HeaderTenantID = "X-Tenant-Id"

	ContextKeyTenant = "tenant_id"

	ResponseError = "error"
	FieldMessage  = "message"
)
