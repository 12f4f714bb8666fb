// Package config gathers every input that decides which lnd binary is
// installed and where.
//
// # Sources
//
// Settings come from five layers, highest precedence first:
//   - command line flags (--lnd-binary-platform, ...)
//   - LND_BINARY_* environment variables
//   - npm_config_lnd_binary_* variables set by the package manager
//   - the project config of the nearest ancestor directory
//   - compiled-in and host-detected defaults
//
// Load reads all of them once and returns a target.Sources value; precedence
// itself is applied by target.Resolve.
//
// # Project config
//
// The nearest ancestor of the project directory that holds a package.json
// or an lnd-binary.lua file supplies the project layer. In package.json the
// block lives under config["lnd-binary"]:
//
//	{
//	  "config": {
//	    "lnd-binary": {
//	      "binaryVersion": "0.14.2-beta",
//	      "binaryDir": "bin"
//	    }
//	  }
//	}
//
// lnd-binary.lua assigns the same keys to a global lnd_binary table and may
// use the read-only platform table to vary them per host:
//
//	lnd_binary = {
//	  binaryVersion = "0.14.2-beta",
//	  binaryDir = platform.when(platform.is_windows, "bin"),
//	}
//
// # Security Model
//
// Lua project files run in a sandboxed VM: no os, io, debug or module
// loading. They can only compute values.
package config
