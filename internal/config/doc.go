// Package config provides configuration management for streamdash.
//
// Configuration is loaded from up to three layers, later layers overriding
// earlier ones field by field:
//
//  1. Defaults compiled into the binary
//  2. User configuration (~/.config/streamdash/config.yaml)
//  3. Project configuration (./.streamdash/config.yaml)
//
// # Configuration Structure
//
//	globalSettings:
//	  logLevel: info
//	host:
//	  url: ws://localhost:8081/ws
//	  origin: http://localhost:8081   # derived from url when empty
//	  listen: localhost:8081          # used by `streamdash host`
//	storage:
//	  backend: badger                 # or memory
//	  path: ~/.config/streamdash/data
//	catalog:
//	  url: https://apps.example.com/catalog.yaml
//	  retries: 2
//	gamepad:
//	  touchTarget: gamepad-touch-surface
//	  mobile: true                    # unset: guessed from userAgent
//	mcp:
//	  enabled: true
//	  host: localhost
//	  port: 8092
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	origin, _ := cfg.Host.ResolvedOrigin()
package config
