// Package config loads agentpipe configuration from defaults, an
// optional YAML file, and environment variable overrides, in that
// order of precedence.
//
// Environment variables follow the pattern PREFIX_SECTION_FIELD, for
// example AGENTPIPE_INVOKER_BASE_URL or AGENTPIPE_ENGINE_DEFAULT_MODEL.
package config
