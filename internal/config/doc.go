// Package config holds the seoprobe configuration: the flat Config built
// from command line flags, its validation errors, and the optional .seoprobe
// YAML file with per-site request headers, cookies and sampling overrides.
package config
