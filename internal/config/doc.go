// Package config loads and validates application configuration. Settings
// are layered: built-in defaults, then an optional cardforge.yaml, then
// CARDFORGE_-prefixed environment variables, with provider API keys also
// honored under their conventional names (GEMINI_API_KEY, OPENAI_API_KEY).
// The result is a typed Config tree that components receive through their
// constructors.
package config
