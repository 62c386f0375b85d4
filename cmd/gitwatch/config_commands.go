package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/gitwatch/pkg/config"
)

// configCommand handles configuration management subcommands.
type configCommand struct {
	configPath string
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "show":
		return c.runShow(subargs)
	case "path":
		return c.runPath()
	case "validate":
		return c.runValidate()
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown config subcommand: %s", subcommand)
	}
}

// runShow displays the current configuration.
func (c *configCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ExitOnError)
	format := fs.String("format", "yaml", "output format (yaml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch *format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Println(string(data))
	default:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(data))
	}

	return nil
}

// runPath prints where configuration is read from.
func (c *configCommand) runPath() error {
	if c.configPath != "" {
		fmt.Println(c.configPath)
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}

	fmt.Printf("./gitwatch.yaml\n%s/.config/gitwatch/config.yaml\n", homeDir)
	return nil
}

// runValidate loads and validates the effective configuration.
func (c *configCommand) runValidate() error {
	if _, err := config.NewLoader(c.configPath).Load(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	fmt.Println("configuration valid")
	return nil
}

// showHelp displays config command usage.
func (c *configCommand) showHelp() error {
	fmt.Println(`gitwatch config - manage configuration

Usage:
  gitwatch config <subcommand>

Subcommands:
  show       Display the effective configuration (-format yaml|json)
  path       Print configuration file search paths
  validate   Check that the effective configuration is valid
  help       Show this help`)
	return nil
}
