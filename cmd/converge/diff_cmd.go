package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fluxcd/converge/pkg/diff"
)

type diffOpts struct {
	*rootOpts
	format string
}

func newDiff(root *rootOpts) *diffOpts {
	return &diffOpts{rootOpts: root}
}

func (opts *diffOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff DESIRED OBSERVED",
		Short: "Show the merge patch that would make one document agree with another",
		Example: makeExample(
			"converge diff secret.yaml <(kubectl get secret token -o json)",
			"kubectl get secret token -o json | converge diff secret.yaml - -o text",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.format, "output", "o", "json", "(json|yaml|text) whether to output the patch as JSON or YAML, or just summarise it in text")
	return cmd
}

func (opts *diffOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return newUsageError("please supply two filenames")
	}
	if args[0] == "-" && args[1] == "-" {
		return newUsageError("only one document can be read from stdin")
	}

	var output func(diff.Patch) error
	switch opts.format {
	case "json":
		output = func(p diff.Patch) error {
			bytes, err := p.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bytes))
			return nil
		}
	case "yaml":
		output = func(p diff.Patch) error {
			bytes, err := p.Document().YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(bytes)
			return err
		}
	case "text":
		output = func(p diff.Patch) error {
			p.Summarise(cmd.OutOrStdout())
			return nil
		}
	default:
		return newUsageError("output format --output,-o must be 'json', 'yaml' or 'text'")
	}

	desired, err := loadDocument(args[0])
	if err != nil {
		return errors.Wrapf(err, "loading %s", args[0])
	}
	observed, err := loadDocument(args[1])
	if err != nil {
		return errors.Wrapf(err, "loading %s", args[1])
	}
	return output(diff.Diff(desired, observed))
}
