// Package llm defines the provider-neutral surface for language model
// access: the Client interface implemented by each provider adapter, the
// sentinel errors providers classify their failures into, and the model
// catalog used to resolve a model name to a provider and credential.
//
// Callers retry on ErrTransient and give up immediately on the permanent
// errors (ErrAuth, ErrBadRequest, ErrBlocked). Provider adapters live in
// internal/platform and translate vendor SDK errors into these sentinels.
package llm
