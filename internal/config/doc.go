// Package config provides configuration management for the portfolio dashboard.
// It handles loading configuration from multiple sources and validation.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (CREDITPULSE_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CREDITPULSE_<SECTION>_<KEY>:
//
//	CREDITPULSE_SERVER_PORT=8080
//	CREDITPULSE_LOGGING_LEVEL=debug
//	CREDITPULSE_UPLOAD_MAX_BYTES=10485760
//	CREDITPULSE_UPLOAD_SHEET_NAME=Cartera
package config
