package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is where releases are published.
const githubRepoSlug = "streamdash/streamdash"

func newSelfUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "self-update",
		Short: "Update streamdash to the latest version",
		Long: `Checks for the latest release of streamdash on GitHub and,
if it is newer than the running binary, replaces the binary in place.

Only tagged release builds can update themselves. Development builds and
builds from a modified checkout ("-dirty") are refused.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
	c.Flags().Bool("check", false, "Only report whether a newer release exists")
	return c
}

// releaseVersion returns the semantic version a build can be compared
// against releases with. Tags may carry a leading "v".
func releaseVersion(v string) (string, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	switch {
	case v == "" || v == "dev":
		return "", fmt.Errorf("cannot self-update a development version")
	case strings.HasSuffix(v, "-dirty"):
		return "", fmt.Errorf("cannot self-update a build from a modified checkout (%s)", v)
	}
	return v, nil
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	current, err := releaseVersion(rootCmd.Version)
	if err != nil {
		return err
	}

	ctx := context.Background()
	out := rootCmd.OutOrStdout()
	checkOnly := false
	if cmd != nil {
		if cmd.Context() != nil {
			ctx = cmd.Context()
		}
		out = cmd.OutOrStdout()
		checkOnly, _ = cmd.Flags().GetBool("check")
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return fmt.Errorf("error occurred while detecting version: %w", err)
	}
	if !found {
		return fmt.Errorf("no streamdash release found in %s", githubRepoSlug)
	}

	if latest.LessOrEqual(current) {
		fmt.Fprintf(out, "Current version (%s) is the latest.\n", current)
		return nil
	}
	if checkOnly {
		fmt.Fprintf(out, "streamdash %s is available (running %s). Run 'streamdash self-update' to install it.\n", latest.Version(), current)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}
	fmt.Fprintf(out, "Updated streamdash %s -> %s\n", current, latest.Version())
	return nil
}
