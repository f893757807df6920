// Package config provides configuration management for rulekit.
//
// Configuration is read from a YAML file, completed with defaults and then
// validated:
//
//	cfg, err := config.LoadConfig("rulekit.yaml")
//
// LoadConfigWithEnvOverrides additionally applies environment variables
// named RULEKIT_SECTION_FIELD, which take precedence over the file:
//
//   - RULEKIT_RULES_FILE_PATH overrides rules.file_path
//   - RULEKIT_AUDIT_BACKEND overrides audit.backend
//   - RULEKIT_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Validation collects every problem into a single ValidationError so that
// all of them can be reported at once.
package config
