package cmd

import (
	"fmt"
	"net/url"

	"github.com/pkg/browser"
	"github.com/saple-ai/saple-cli/internal/preview"
	"github.com/spf13/cobra"
)

// openURL opens the preview in a browser. Tests replace it.
var openURL = browser.OpenURL

func newAgentsPreviewCmd() *cobra.Command {
	var (
		addr string
		open bool
	)

	cmd := &cobra.Command{
		Use:   "preview [agent-id]",
		Short: "Preview the chat widget locally",
		Long: `Serve a local page showing how the agent's chat widget looks: color, font
and the welcome message with the agent name filled in. Without an agent id the
page lists every agent. Stop with Ctrl+C.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: agentIDCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = s.cfg.Preview.Addr
			}

			srv := preview.New(s.client, s.cfg.ServerURL, s.log)
			return srv.ListenAndServe(cmd.Context(), addr, func(baseURL string) {
				target := baseURL + "/"
				if len(args) == 1 {
					target = baseURL + "/agents/" + url.PathEscape(args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Preview running at %s (Ctrl+C to stop)\n", target)
				if open {
					if err := openURL(target); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Note: %v\n", err)
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:4173)")
	cmd.Flags().BoolVar(&open, "open", false, "open the preview in your browser")
	return cmd
}
