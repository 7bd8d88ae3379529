package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"simclient/internal/app"
	"simclient/internal/domain"
	"simclient/internal/logging"
	"simclient/internal/outputter"
	"simclient/internal/policy"
)

func main() {
	var (
		debug       bool
		jsonOut     bool
		profile     string
		region      string
		principal   string
		catalogPath string
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	newClient := func(service string) (*app.Client, error) {
		// Load .env file if present (optional; production should use env vars or IAM roles directly)
		_ = godotenv.Load()

		logging.SetLogLevel(logging.LogLevelWarn)
		if debug {
			logging.SetLogLevel(logging.LogLevelDebug)
		}

		return app.New(ctx, app.Options{
			Service:      service,
			Profile:      profile,
			Region:       region,
			PrincipalARN: principal,
			CatalogPath:  catalogPath,
		})
	}

	rootCmd := &cobra.Command{
		Use:   "simclient",
		Short: "Pre-flight IAM authorization simulator",
		Long: "Answers \"would this call be authorized?\" by evaluating the caller's\n" +
			"collected IAM policies through the policy simulator, without executing\n" +
			"any operation against the target service.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (verbose output)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "AWS shared-config profile")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region override")
	rootCmd.PersistentFlags().StringVar(&principal, "principal", "", "Simulate as this principal ARN instead of the caller")

	var (
		resources   []string
		contextVals []string
	)
	simulateCmd := &cobra.Command{
		Use:   "simulate <action>...",
		Short: "Evaluate IAM actions against the principal's policies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient("")
			if err != nil {
				return err
			}

			opts := []policy.SimulateOption{}
			if len(resources) > 0 {
				opts = append(opts, policy.WithResources(resources...))
			}
			entries, err := parseContextEntries(contextVals)
			if err != nil {
				return err
			}
			if len(entries) > 0 {
				opts = append(opts, policy.WithContext(entries...))
			}

			results, err := client.Container().Simulate(ctx, args, opts...)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(results)
			}
			fmt.Print(outputter.FormatResults(client.Container().Principal().ARN, results))
			return nil
		},
	}
	simulateCmd.Flags().StringSliceVar(&resources, "resource", nil, "Resource ARN(s) to scope the evaluation to")
	simulateCmd.Flags().StringSliceVar(&contextVals, "context", nil, "Condition context entries as key=value[,value...]")

	callCmd := &cobra.Command{
		Use:   "call <service> <method>",
		Short: "Simulate one service method call end to end",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(args[0])
			if err != nil {
				return err
			}

			response, err := client.Call(ctx, args[1])
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(response)
			}
			fmt.Print(outputter.FormatResponse(response))
			if !response.Allowed {
				os.Exit(2)
			}
			return nil
		},
	}
	callCmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to an external operation catalog YAML")

	policiesCmd := &cobra.Command{
		Use:   "policies",
		Short: "List the policy documents collected for the principal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient("")
			if err != nil {
				return err
			}

			policies := client.Container().Policies()
			if jsonOut {
				return printJSON(policies)
			}
			fmt.Print(outputter.FormatPolicies(client.Container().Principal().ARN, policies))
			return nil
		},
	}

	rootCmd.AddCommand(simulateCmd, callCmd, policiesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseContextEntries parses key=value[,value...] flags into context
// entries, inferring the simulator type from the values.
func parseContextEntries(raw []string) ([]domain.ContextEntry, error) {
	entries := make([]domain.ContextEntry, 0, len(raw))
	for _, r := range raw {
		key, value, found := strings.Cut(r, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid context entry %q, expected key=value", r)
		}
		values := strings.Split(value, ",")
		entries = append(entries, domain.ContextEntry{
			Key:    key,
			Values: values,
			Type:   inferContextType(values),
		})
	}
	return entries, nil
}

func inferContextType(values []string) string {
	single := len(values) == 1
	allBool, allNum := true, true
	for _, v := range values {
		if v != "true" && v != "false" {
			allBool = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			allNum = false
		}
	}
	switch {
	case single && allBool:
		return "boolean"
	case single && allNum:
		return "numeric"
	case single:
		return "string"
	default:
		return "stringList"
	}
}

func printJSON(v interface{}) error {
	out, err := outputter.ToJSON(v)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
