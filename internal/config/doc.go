// Package config loads, normalizes, and validates voxpost configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VOXPOST_LLM_API_KEY and NATS_URL. The Config type centralizes every knob the
// daemon and CLI need: storage backends, the trigger transport, the three AI
// adapters, and workflow timing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
