// Package config loads the flat "key value" configuration file shared
// by the dqm4hep-go commands (collector daemon, run control, CLI
// helpers).
//
// Every component is expected to store logs, caches, and runtime
// state under a dedicated base directory, defaulting to
// $DQM4HEP_BASE or $HOME/lib/dqm4hep. The base directory is expected
// to contain a file called "config" in the same one-key-per-line
// format the file server configuration used, with paths derived from
// the base directory exposed as methods of C.
package config
