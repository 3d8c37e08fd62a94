// Package config handles loading of service settings from YAML files and
// environment variables, and parsing of the target project list that the
// pinger keeps alive. The project list is read from the environment on every
// invocation so that it can change without a restart.
package config
