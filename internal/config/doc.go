// Package config loads wordsift configuration from local and global YAML
// files and resolves the named detection options. It is internal; CLI code
// maps flags and files into engine and facade configuration.
package config
