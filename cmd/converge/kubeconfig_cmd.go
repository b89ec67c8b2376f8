package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fluxcd/converge/pkg/kubeconfig"
	"github.com/fluxcd/converge/pkg/resource"
)

type kubeconfigOpts struct {
	*rootOpts
	settings      kubeconfig.Settings
	absent        bool
	mode          string
	skipTLSVerify bool
	dryRun        bool
	output        string
}

func newKubeconfig(root *rootOpts) *kubeconfigOpts {
	return &kubeconfigOpts{
		rootOpts: root,
		settings: kubeconfig.DefaultSettings(""),
	}
}

func (opts *kubeconfigOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kubeconfig PATH",
		Short: "Converge one cluster, context and user in a kubeconfig file",
		Example: makeExample(
			"converge kubeconfig /var/lib/kubernetes/utility.conf --server https://kubernetes.home.lan:6443 --ca-cert /etc/kubernetes/ca.pem --token utility-token",
			"converge kubeconfig /root/.kube/config --absent",
		),
		RunE: opts.RunE,
	}
	flags := cmd.Flags()
	opts.settingsFlags(flags)
	flags.BoolVar(&opts.dryRun, "dry-run", false, "say what would change, without changing it")
	flags.StringVarP(&opts.output, "output", "o", "text", "output format; one of 'text' or 'json'")
	return cmd
}

func (opts *kubeconfigOpts) settingsFlags(flags *pflag.FlagSet) {
	s := &opts.settings
	flags.BoolVar(&opts.absent, "absent", false, "remove the file instead")
	flags.StringVar(&s.Owner, "owner", "", "owner of the file, by name or ID")
	flags.StringVar(&s.Group, "group", "", "group of the file, by name or ID")
	flags.StringVar(&opts.mode, "mode", "", "mode of the file, in octal (e.g., 0600)")
	flags.StringVar(&s.Cluster, "cluster", s.Cluster, "name of the cluster entry")
	flags.StringVar(&s.Context, "context", s.Context, "name of the context entry")
	flags.StringVar(&s.User, "user", s.User, "name of the user entry")
	flags.StringVar(&s.Namespace, "namespace", s.Namespace, "namespace of the context")
	flags.StringVar(&s.CurrentContext, "current-context", "", "make this the current context")
	flags.StringVar(&s.Server, "server", "", "server URL of the cluster")
	flags.BoolVar(&opts.skipTLSVerify, "skip-tls-verify", false, "don't verify the server's certificate")
	flags.StringVar(&s.TLSServerName, "tls-server-name", "", "server name to verify the server's certificate against")
	flags.BoolVar(&s.EmbedCerts, "embed-certs", s.EmbedCerts, "put certificates and keys in the file, rather than their paths")
	flags.StringVar(&s.CACert, "ca-cert", "", "path of the CA certificate")
	flags.StringVar(&s.ClientCert, "client-cert", "", "path of the client certificate")
	flags.StringVar(&s.ClientKey, "client-key", "", "path of the client key")
	flags.StringVar(&s.Token, "token", "", "bearer token of the user")
	flags.StringVar(&s.TokenFile, "token-file", "", "path of a file holding the bearer token of the user")
	flags.StringVar(&s.Username, "username", "", "basic auth user name")
	flags.StringVar(&s.Password, "password", "", "basic auth password")
}

func (opts *kubeconfigOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return newUsageError("please supply the path of the kubeconfig file")
	}
	if opts.output != "text" && opts.output != "json" {
		return errorInvalidOutputFormat
	}
	s := opts.settings
	s.Path = args[0]
	if opts.absent {
		s.Ensure = resource.Absent
	}
	if opts.mode != "" {
		mode, err := strconv.ParseUint(opts.mode, 8, 32)
		if err != nil {
			return newUsageError("--mode must be an octal file mode")
		}
		s.Mode = os.FileMode(mode)
	}
	if cmd.Flags().Changed("skip-tls-verify") {
		s.SkipTLSVerify = &opts.skipTLSVerify
	}

	r := &kubeconfig.Reconciler{
		Logger: log.With(opts.Logger, "component", "kubeconfig"),
		DryRun: opts.dryRun,
	}
	result, err := r.Reconcile(cmd.Context(), s)
	if err != nil {
		return err
	}
	if opts.output == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	if result.Action != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s kubeconfig %s\n", dryRunPrefix(result.DryRun), result.Action, result.Path)
	}
	return nil
}
