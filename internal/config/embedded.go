package config

// Embedded debrid API key injected at build time via ldflags. Serves as
// a default and can be overridden by environment variables or config
// file.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/mirastream/mirastream/internal/config.EmbeddedDebridKey=xxx'"
var EmbeddedDebridKey string
