package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/config"
	"github.com/wostzone/wostconsumer-go/pkg/consumedthing"
	"github.com/wostzone/wostconsumer-go/pkg/contentserdes"
	"github.com/wostzone/wostconsumer-go/pkg/servient"
)

// cli holds the state shared by the commands
type cli struct {
	cfg      *config.ConsumerConfig
	servient *servient.Servient
}

// NewRootCmd creates the wotcli command with its subcommands
//  cfg with the configuration loaded with config.LoadCommandlineConfig. Flags override it.
func NewRootCmd(cfg *config.ConsumerConfig) *cobra.Command {
	app := &cli{cfg: cfg}
	rootCmd := &cobra.Command{
		Use:   "wotcli",
		Short: "Web of Things consumer",
		Long: `wotcli interacts with Things described by a Thing Description (TD).
The TD is read from a file or an http(s) URL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetLogging(cfg.LogLevel, cfg.LogFile); err != nil {
				return err
			}
			srv, err := servient.NewDefaultServient(cfg)
			if err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			app.servient = srv
			return nil
		},
	}
	config.SetCommandlineArgs(cfg, rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		app.describeCmd(),
		app.readCmd(),
		app.writeCmd(),
		app.invokeCmd(),
		app.subscribeCmd(),
	)
	return rootCmd
}

// runE returns a cobra RunE handler that shuts down the servient when done
func (app *cli) runE(handler func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer func() {
			if app.servient != nil {
				app.servient.Shutdown()
			}
		}()
		return handler(cmd, args)
	}
}

// loadTD reads a TD from a file or from a URL using the protocol client of its scheme
func (app *cli) loadTD(ctx context.Context, tdRef string) (string, error) {
	scheme, _, isURL := strings.Cut(tdRef, "://")
	if !isURL {
		tdJSON, err := os.ReadFile(tdRef)
		return string(tdJSON), err
	}
	client, err := app.servient.GetClientFor(scheme)
	if err != nil {
		return "", err
	}
	form := api.Form{Href: tdRef, MediaType: contentserdes.MediaTypeTDJSON}
	content, err := client.ReadResource(ctx, form)
	if err != nil {
		logrus.Errorf("loadTD: Unable to read TD from '%s': %s", tdRef, err)
		return "", err
	}
	return string(content.Body), nil
}

// consume loads the TD and creates the consumed Thing
func (app *cli) consume(ctx context.Context, tdRef string) (*consumedthing.ConsumedThing, error) {
	tdJSON, err := app.loadTD(ctx, tdRef)
	if err != nil {
		return nil, fmt.Errorf("failed to load TD: %w", err)
	}
	return app.servient.Consume(tdJSON)
}

// parseValue parses a commandline value as JSON. Text that is not valid JSON is used as string.
func parseValue(text string) interface{} {
	var value interface{}
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return text
	}
	return value
}

// printValue writes a value as indented JSON
func printValue(out io.Writer, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
