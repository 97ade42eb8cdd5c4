// Command gateway runs the auth gateway HTTP and WebSocket server.
//
//	@title						Auth Gateway API
//	@version					1.0
//	@description				Credential verification, bearer tokens, role checks, rate limiting and a WebSocket broadcast room.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
