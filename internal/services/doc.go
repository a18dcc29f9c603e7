// Package services defines shared utilities consumed by the ingestion pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, source names, target identifiers,
//     and step names for logging.
//   - Structured error markers plus the Wrap helper that let the item
//     processor translate failures into outcome reasons.
//
// Use these helpers when wiring new collaborators so error classification and
// observability stay uniform across the pipeline.
package services
