// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to the settings of the word pool service (server, database, pool,
// reclamation, registration window, OCR and admin auth) while keeping
// configuration details separate from business logic.
package config
