package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/fluxcd/converge/pkg/cluster"
	"github.com/fluxcd/converge/pkg/cluster/file"
	"github.com/fluxcd/converge/pkg/cluster/kubernetes"
	"github.com/fluxcd/converge/pkg/kubeconfig"
	"github.com/fluxcd/converge/pkg/manifests"
	"github.com/fluxcd/converge/pkg/metrics"
	"github.com/fluxcd/converge/pkg/reconcile"
	"github.com/fluxcd/converge/pkg/resource"
)

type applyOpts struct {
	*rootOpts
	file            string
	backend         string
	stateDir        string
	selector        resource.Selector
	showDiff        bool
	dryRun          bool
	metricsTextfile string
	output          string
}

func newApply(root *rootOpts) *applyOpts {
	return &applyOpts{rootOpts: root}
}

// report is what apply outputs with --output=json.
type report struct {
	Resources   []reconcile.Result  `json:"resources"`
	Kubeconfigs []kubeconfig.Result `json:"kubeconfigs"`
}

func (opts *applyOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge every resource and kubeconfig declared in a file",
		Example: makeExample(
			"converge apply -f converge.yaml",
			"converge apply -f converge.yaml --dry-run --show-diff",
			"converge apply -f converge.yaml --backend file --state-dir ./state",
			"converge apply -f converge.yaml --exclude '<cluster>:*'",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "declarations file")
	cmd.Flags().StringVar(&opts.backend, "backend", "kubectl", "how to reach resources; one of 'kubectl', 'api' or 'file'")
	cmd.Flags().StringVar(&opts.stateDir, "state-dir", ".", "directory holding resources, for the file backend")
	cmd.Flags().StringSliceVar(&opts.selector.Include, "include", nil, "only converge resources with IDs matching these glob patterns (e.g., 'kube-system:secret/*')")
	cmd.Flags().StringSliceVar(&opts.selector.Exclude, "exclude", nil, "don't converge resources with IDs matching these glob patterns")
	cmd.Flags().BoolVar(&opts.showDiff, "show-diff", false, "include what is sent in the description of every change")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "say what would change, without changing it")
	cmd.Flags().StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write metrics to this file when done, for the node exporter textfile collector")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format; one of 'text' or 'json'")
	return cmd
}

func (opts *applyOpts) boundary() (cluster.Boundary, error) {
	logger := log.With(opts.Logger, "component", "cluster", "backend", opts.backend)
	switch opts.backend {
	case "kubectl":
		return kubernetes.NewKubectl(opts.Kubectl, logger), nil
	case "api":
		return kubernetes.NewDynamicFromKubeconfig(opts.Kubeconfig, logger), nil
	case "file":
		return file.NewStore(opts.stateDir, logger), nil
	}
	return nil, newUsageError("--backend must be 'kubectl', 'api' or 'file'")
}

func (opts *applyOpts) RunE(cmd *cobra.Command, args []string) (err error) {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	if opts.file == "" {
		return newUsageError("please supply a declarations file with --file")
	}
	if opts.output != "text" && opts.output != "json" {
		return errorInvalidOutputFormat
	}
	boundary, err := opts.boundary()
	if err != nil {
		return err
	}
	if opts.metricsTextfile != "" {
		defer func() {
			if werr := metrics.WriteTextfile(opts.metricsTextfile); werr != nil {
				opts.Logger.Log("metrics-textfile", opts.metricsTextfile, "err", werr)
			}
		}()
	}

	cf, err := manifests.NewConfigFile(opts.file)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var rep report
	defer func() {
		if opts.output == "json" {
			if jerr := writeJSON(out, rep); err == nil {
				err = jerr
			}
		}
	}()

	// Kubeconfigs go before any resource that may be reached through one.
	kubeconfigs := &kubeconfig.Reconciler{
		Logger: log.With(opts.Logger, "component", "kubeconfig"),
		DryRun: opts.dryRun,
	}
	for _, decl := range cf.Kubeconfigs {
		settings, err := decl.Settings()
		if err != nil {
			return err
		}
		result, err := kubeconfigs.Reconcile(cmd.Context(), settings)
		if err != nil {
			return err
		}
		rep.Kubeconfigs = append(rep.Kubeconfigs, result)
		if opts.output == "text" && result.Action != "" {
			fmt.Fprintf(out, "%s%s kubeconfig %s\n", dryRunPrefix(result.DryRun), result.Action, result.Path)
		}
	}

	resources := &reconcile.Reconciler{
		Boundary: boundary,
		Logger:   log.With(opts.Logger, "component", "reconcile"),
		DryRun:   opts.dryRun,
	}
	for _, decl := range cf.Resources {
		spec, err := decl.Spec(opts.Kubeconfig)
		if err != nil {
			return err
		}
		if !opts.selector.Selects(spec.ID()) {
			opts.Logger.Log("resource", spec.ID(), "info", "not selected; skipping")
			continue
		}
		spec.ShowDiff = spec.ShowDiff || opts.showDiff
		result, err := resources.Reconcile(cmd.Context(), spec)
		if err != nil {
			return err
		}
		rep.Resources = append(rep.Resources, result)
		if opts.output == "text" && result.Description != "" {
			fmt.Fprintln(out, dryRunPrefix(result.DryRun)+result.Description)
		}
	}
	return nil
}

func dryRunPrefix(dryRun bool) string {
	if dryRun {
		return "(dry run) "
	}
	return ""
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
