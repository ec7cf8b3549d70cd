// Package config provides the runtime configuration of nnmdl: defaults,
// the optional .nnmdl YAML file with tracker accounts, and the XDG
// directories used for persisted state and downloads.
package config
