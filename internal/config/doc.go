// Package config loads, normalizes, and validates cardsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for the
// catalog key, S3 credentials, and database URL. The Config type centralizes
// every knob the ingestion pipeline and CLI need, including the per-source
// identifier ranges, key layouts, and image policies.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors. Source
// identifier ranges are checked for overlap here; the identifier mapper itself
// trusts its configuration.
package config
