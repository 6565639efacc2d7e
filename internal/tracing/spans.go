package tracing

// Span attribute keys.
const (
	AttrManagerName   = "manager.name"
	AttrExtensionName = "extension.name"
	AttrHookPhase     = "extension.phase"
	AttrBootRunID     = "boot.run_id"
	AttrClassName     = "class.name"
	AttrChainLink     = "chain.link"
	AttrChainOrigin   = "chain.origin"
	AttrErrorType     = "error.type"
)

// Span names.
const (
	SpanManagerBuild  = "registry.manager.build"
	SpanPrefixHook    = "extension."
	SpanClassResolve  = "chain.resolve"
	EventBuildSuccess = "manager.built"
)
