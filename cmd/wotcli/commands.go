package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wostzone/wostconsumer-go/api"
)

func (app *cli) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <td>",
		Short: "Show the interactions of a Thing",
		Args:  cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			cThing, err := app.consume(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			model := cThing.GetModel()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Thing:    %s\n", model.Name)
			fmt.Fprintf(out, "ID:       %s\n", model.ID)
			if model.Description != "" {
				fmt.Fprintf(out, "About:    %s\n", model.Description)
			}
			for _, scheme := range model.Security {
				fmt.Fprintf(out, "Security: %s\n", scheme.Scheme)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\nKIND\tNAME\tTITLE\tHREF")
			for _, name := range sortedKeys(cThing.Properties) {
				prop := cThing.Properties[name]
				kind := "property"
				if prop.Affordance.ReadOnly {
					kind = "property (ro)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", kind, name, prop.Affordance.Title, firstHref(prop.Affordance.Forms))
			}
			for _, name := range sortedKeys(cThing.Actions) {
				action := cThing.Actions[name]
				fmt.Fprintf(tw, "action\t%s\t%s\t%s\n", name, action.Affordance.Title, firstHref(action.Affordance.Forms))
			}
			for _, name := range sortedKeys(cThing.Events) {
				event := cThing.Events[name]
				fmt.Fprintf(tw, "event\t%s\t%s\t%s\n", name, event.Affordance.Title, firstHref(event.Affordance.Forms))
			}
			return tw.Flush()
		}),
	}
}

func (app *cli) readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <td> [property...]",
		Short: "Read property values. All properties when none are given.",
		Args:  cobra.MinimumNArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			cThing, err := app.consume(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				value, err := cThing.ReadProperty(cmd.Context(), args[1])
				if err != nil {
					return fmt.Errorf("failed to read property '%s': %w", args[1], err)
				}
				return printValue(cmd.OutOrStdout(), value)
			}
			values, err := cThing.ReadProperties(cmd.Context(), args[1:]...)
			if err != nil {
				return fmt.Errorf("failed to read properties: %w", err)
			}
			return printValue(cmd.OutOrStdout(), values)
		}),
	}
}

func (app *cli) writeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write <td> <property> <value>",
		Short: "Write a property value. The value is JSON or text.",
		Args:  cobra.ExactArgs(3),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			cThing, err := app.consume(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			err = cThing.WriteProperty(cmd.Context(), args[1], parseValue(args[2]))
			if err != nil {
				return fmt.Errorf("failed to write property '%s': %w", args[1], err)
			}
			return nil
		}),
	}
}

func (app *cli) invokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <td> <action> [input]",
		Short: "Invoke an action with optional JSON or text input and show its output",
		Args:  cobra.RangeArgs(2, 3),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			cThing, err := app.consume(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var input interface{}
			if len(args) == 3 {
				input = parseValue(args[2])
			}
			output, err := cThing.InvokeAction(cmd.Context(), args[1], input)
			if err != nil {
				return fmt.Errorf("failed to invoke action '%s': %w", args[1], err)
			}
			if output == nil {
				return nil
			}
			return printValue(cmd.OutOrStdout(), output)
		}),
	}
}

func (app *cli) subscribeCmd() *cobra.Command {
	var count int
	var observe bool
	cmd := &cobra.Command{
		Use:   "subscribe <td> <event>",
		Short: "Show event notifications until interrupted",
		Args:  cobra.ExactArgs(2),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			cThing, err := app.consume(ctx, args[0])
			if err != nil {
				return err
			}
			received := make(chan interface{}, 10)
			handler := func(value interface{}) {
				select {
				case received <- value:
				default:
				}
			}
			var unsubscribe func()
			if observe {
				unsubscribe, err = cThing.ObserveProperty(ctx, args[1], handler)
			} else {
				unsubscribe, err = cThing.SubscribeEvent(ctx, args[1], handler)
			}
			if err != nil {
				return fmt.Errorf("failed to subscribe to '%s': %w", args[1], err)
			}
			defer unsubscribe()
			return printNotifications(ctx, cmd, received, count)
		}),
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after `n` notifications. 0 to run until interrupted")
	cmd.Flags().BoolVar(&observe, "property", false, "Observe a property instead of an event")
	return cmd
}

// printNotifications prints the received values until count is reached or the context ends
func printNotifications(ctx context.Context, cmd *cobra.Command, received chan interface{}, count int) error {
	for n := 0; count == 0 || n < count; n++ {
		select {
		case value := <-received:
			if err := printValue(cmd.OutOrStdout(), value); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func firstHref(forms []api.Form) string {
	if len(forms) == 0 {
		return ""
	}
	return forms[0].Href
}
