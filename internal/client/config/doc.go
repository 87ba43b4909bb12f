// Package config loads runtime configuration for the portalctl admin
// console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment: PORTAL_SERVER_URL, PORTAL_ADMIN_SECRET.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the portal server
//	-t int      request timeout (seconds)
//
// The admin secret is never accepted as a flag so it does not show up in
// shell history or process listings. When it is not set the console prompts
// for it.
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:3000",
//	  "request_timeout": "10s"
//	}
package config
