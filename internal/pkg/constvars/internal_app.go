package constvars

type ContextKey string

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_ACTOR_ID_KEY             ContextKey = "actor_id"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
)

const (
	REQUEST_ID_PREFIX = "MDBRG_SVC_"
)

const (
	ActorSystem = "system"
)

const (
	AppPaginationCursorParam = "cursor"
	AppPaginationLimitParam  = "limit"
)

const (
	MongoCollectionAuditEvents = "audit_events"
)
