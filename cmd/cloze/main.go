package main

import (
	"fmt"
	"os"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "play":
		err = cmdPlay()
	case "passage":
		err = cmdPassage(os.Args[2:])
	case "redact":
		err = cmdRedact(os.Args[2:])
	case "stats":
		err = cmdStats(os.Args[2:])
	case "config":
		err = cmdConfig()
	case "serve":
		err = cmdServe()
	case "mcp":
		err = cmdMCP()
	case "events":
		err = cmdEvents()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("cloze %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Cloze - Fill-in-the-blank reading rounds from public-domain books

Usage:
  cloze <command> [arguments]

Setup Commands:
  init            Create ~/.cloze and a default configuration
  config          Show current configuration

Play Commands:
  play            Play rounds in the terminal
  stats [n]       Summarize past rounds and list the n most recent (default: 5)

Debug Commands:
  passage [level] Print a quality-filtered passage without blanks
  redact [level]  Build a round and print it with its answers

Integration Commands:
  serve           Start the JSON HTTP API (server.bind:server.port)
  mcp             Start MCP server (stdio, or HTTP when mcp.http_addr is set)
  events          Print round-completed events from RabbitMQ

Other Commands:
  help            Show this help message
  version         Show version information

Examples:
  cloze init
  cloze play
  cloze redact 4
  cloze stats 10`)
}
