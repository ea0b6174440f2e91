// Package config defines ambient settings for the dead man's switch and
// provides helpers to load, validate and save them in YAML format.
//
// The Settings type holds the template directory, the bot commit identity,
// the git remote name and timing knobs. The file is optional; a missing
// file yields defaults so the binary works out of the box.
package config
