// wsgate - WebSocket sub-protocol gateway for STOMP and MQTT
package main

import "github.com/getmockd/wsgate/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
