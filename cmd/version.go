/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/gitsherpa/internal/report"
	"github.com/fulmenhq/gitsherpa/pkg/buildinfo"
)

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
	Arch      string `json:"arch" yaml:"arch"`
}

func newVersionCmd() *cobra.Command {
	format := report.FormatHuman
	var extended bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the git-sherpa version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{
				Version:   buildinfo.Version(),
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS,
				Arch:      runtime.GOARCH,
			}
			out := cmd.OutOrStdout()
			if format.IsMachine() {
				return report.Data(out, info, format)
			}
			fmt.Fprintf(out, "git-sherpa %s\n", info.Version)
			if extended {
				fmt.Fprintf(out, "Go: %s\nPlatform: %s/%s\n", info.GoVersion, info.Platform, info.Arch)
			}
			return nil
		},
	}
	cmd.Flags().Var(&format, "format", "Output format (human|json|yaml)")
	cmd.Flags().BoolVar(&extended, "extended", false, "Show Go and platform details")
	return cmd
}
