package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at link time, with
// -ldflags "-X main.version=..."
var version string

type versionOpts struct {
	*rootOpts
	output string
}

func newVersion(root *rootOpts) *versionOpts {
	return &versionOpts{rootOpts: root}
}

// buildInfo is what version outputs with --output=json.
type buildInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

func (opts *versionOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Output the version of converge",
		Example: makeExample(
			"converge version",
			"converge version -o json",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format; one of 'text' or 'json'")
	return cmd
}

func (opts *versionOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	info := currentBuildInfo()
	switch opts.output {
	case "text":
		fmt.Fprintln(cmd.OutOrStdout(), info.Version)
		return nil
	case "json":
		return writeJSON(cmd.OutOrStdout(), info)
	}
	return errorInvalidOutputFormat
}

func currentBuildInfo() buildInfo {
	info := buildInfo{Version: version, GoVersion: runtime.Version()}
	if info.Version == "" {
		info.Version = "unversioned"
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "unversioned" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}
	return info
}
