// Package config handles configuration loading for the relay server.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${RELAY_JWT_SECRET}"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:3000"   # REST API and websocket endpoint
//
// Database:
//
//	database:
//	  path: "/var/lib/chatsapp/relay.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${RELAY_JWT_SECRET}"  # required, 32 bytes minimum
//	  token_ttl: "1h"
//
// Relay tuning:
//
//	relay:
//	  max_message_size: 65536
//	  write_timeout: "10s"
//	  pong_timeout: "60s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
