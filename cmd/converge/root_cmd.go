package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"
)

const (
	EnvVariableKubeconfig = "CONVERGE_KUBECONFIG"
)

type rootOpts struct {
	Kubeconfig string
	Kubectl    string
	LogFormat  string

	Logger log.Logger
}

func newRoot() *rootOpts {
	return &rootOpts{}
}

var rootLongHelp = strings.TrimSpace(`
converge brings Kubernetes objects and kubeconfig files into line with
their declarations, doing as little as it takes.

Workflow:
  converge diff desired.yaml observed.yaml  # What would have to change?
  converge apply -f converge.yaml --dry-run # What would change in the cluster?
  converge apply -f converge.yaml           # Make it so.
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "converge",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}
	cmd.PersistentFlags().StringVar(&opts.Kubeconfig, "kubeconfig", "",
		fmt.Sprintf("path to the kubeconfig used to reach the cluster, unless a resource names its own; you can also set the environment variable %s", EnvVariableKubeconfig))
	cmd.PersistentFlags().StringVar(&opts.Kubectl, "kubectl", "kubectl", "kubectl executable, for the kubectl backend")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "fmt", "change the log format; one of 'fmt' or 'json'")

	cmd.AddCommand(
		newApply(opts).Command(),
		newDiff(opts).Command(),
		newKubeconfig(opts).Command(),
		newVersion(opts).Command(),
	)
	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	kubeconfig := os.Getenv(EnvVariableKubeconfig)
	if cmd.Flags().Changed("kubeconfig") || kubeconfig == "" {
		kubeconfig = opts.Kubeconfig
	}
	opts.Kubeconfig = kubeconfig

	switch opts.LogFormat {
	case "fmt":
		opts.Logger = log.NewLogfmtLogger(cmd.ErrOrStderr())
	case "json":
		opts.Logger = log.NewJSONLogger(cmd.ErrOrStderr())
	default:
		return newUsageError("--log-format must be 'fmt' or 'json'")
	}
	opts.Logger = log.With(opts.Logger, "ts", log.DefaultTimestampUTC)
	opts.Logger = log.With(opts.Logger, "caller", log.DefaultCaller)
	return nil
}
