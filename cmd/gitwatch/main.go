// Package main provides the gitwatch daemon CLI.
//
// gitwatch is the backend of a multi-window desktop git client: it
// watches git repository state for opened worktrees, invalidates
// derived caches when it changes, and pushes change events to the
// windows that subscribed.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	// Define global flags.
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	// Parse command.
	flag.Parse()

	// Handle version flag.
	if *showVersion {
		fmt.Printf("gitwatch %s\n", version)
		return nil
	}

	// Get command.
	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "serve":
		return runServeCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runServeCommand runs the serve command.
func runServeCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	socketPath := fs.String("socket", "", "unix socket path (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &serveCommand{
		configPath: configPath,
		socketPath: *socketPath,
	}

	return cmd.Execute()
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{
		configPath: configPath,
	}

	return cmd.Execute(args)
}

// showUsage displays command usage information.
func showUsage() error {
	fmt.Println(`gitwatch - git worktree watch daemon

Usage:
  gitwatch [flags] <command>

Commands:
  serve       Run the watch daemon
  config      Manage configuration (show, path, validate)
  help        Show this help

Flags:
  -config string   Path to configuration file
  -version         Show version information

Examples:
  gitwatch serve
  gitwatch serve -socket /tmp/gitwatch.sock
  gitwatch config show -format json`)
	return nil
}
