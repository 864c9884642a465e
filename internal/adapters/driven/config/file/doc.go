// Package file reads ~/.camdeck/config.toml. CAMDECK_* environment
// variables take precedence over the file, one variable per dotted key.
package file
