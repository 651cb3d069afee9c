package main

import (
	"log"
	"os"

	"github.com/izan-l/cellium-mcp-client/bridge"
)

func main() {
	if err := bridge.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
