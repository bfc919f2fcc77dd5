package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for seoprobe.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seoprobe",
		Short: "Audit the SEO touchpoints of a web page",
		Long: `seoprobe audits how a page agrees with the rest of its site.

For one URL it checks robots.txt, the site's sitemaps, the canonical, AMP
and hreflang pointers the page declares (and whether their targets point
back), internal links from other pages of the site, and the weight of the
page's assets. Disagreements are reported as conflicts.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewSitemapCmd())
	cmd.AddCommand(NewRobotsCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
