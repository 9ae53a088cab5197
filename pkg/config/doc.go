// Package config provides the gateway configuration and its file loader.
//
// A configuration file is YAML (.yaml, .yml) or JSON (anything else):
//
//	server:
//	  listen: ":8080"
//	  path: /ws
//	  staticDir: ./www
//	  allowedOrigins: ["*.example.com"]
//	tls:
//	  enabled: true
//	  autoGenerateCert: true
//	transportOptions:
//	  maxFrameSize: 65536
//	stomp:
//	  upstream: localhost:61613
//	mqtt:
//	  mode: embedded
//	  listen: ":1883"
//	log:
//	  level: debug
//
// Values not present in the file keep their defaults:
//
//	cfg, err := config.LoadFromFile("wsgate.yaml")
//	if err != nil {
//	    return err
//	}
package config
