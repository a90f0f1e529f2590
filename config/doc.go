// Package config loads the YAML configuration of a telemetry engine and
// watches it for changes.
//
// A minimal file:
//
//	cache_name: products
//	metrics:
//	  enabled: true
//	  key_metrics_enabled: true
//	  flush_interval: 10s
//	store:
//	  driver: postgres
//	  dsn: secretref:env:CACHESTATS_PG_DSN
//
// String values that carry credentials are resolved through package secret
// after decoding, so ${VAR} and secretref: references never reach a driver.
package config
