// Package config loads, normalizes, and validates abs-tag-sync configuration.
//
// Values are layered: repository defaults, then an optional TOML file, then an
// optional .env file, then the process environment (ABS_URL, ABS_TOKEN,
// RMAB_CONTAINER, ...). The resulting Config is built once at startup and
// handed to the pipeline; nothing mutates it afterwards.
//
// Always obtain settings through this package so downstream code receives
// trimmed URLs, expanded paths, and clear validation errors.
package config
