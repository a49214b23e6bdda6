package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/saple-ai/saple-cli/internal/auth"
	"github.com/saple-ai/saple-cli/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	var (
		withToken bool
		expiresIn time.Duration
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to Saple",
		Long: `Sign in using the OAuth device flow.

This command will:
1. Discover OAuth endpoints from your identity provider
2. Request a device code
3. Open your browser for authorization
4. Wait for you to complete the flow
5. Save your credentials locally

With --with-token an access token is read from stdin instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if withToken {
				return runLoginWithToken(cmd, expiresIn)
			}
			return runLogin(cmd, noBrowser)
		},
	}

	cmd.Flags().BoolVar(&withToken, "with-token", false, "read an access token from stdin")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", time.Hour, "lifetime of a token given with --with-token")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "do not open the verification URL")
	return cmd
}

func runLogin(cmd *cobra.Command, noBrowser bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	log := getLogger(cmd, cfg)
	oidc := newOIDCClient(cfg)
	ctx := cmd.Context()

	issuer := cfg.IssuerURL()
	fmt.Fprintf(out, "Authenticating with %s...\n\n", issuer)

	oidcConfig, err := oidc.Discover(ctx, issuer)
	if err != nil {
		return fmt.Errorf("failed to discover OIDC configuration: %w", err)
	}

	deviceResp, err := oidc.RequestDeviceCode(ctx, oidcConfig, auth.DefaultScopes)
	if err != nil {
		return fmt.Errorf("failed to request device code: %w", err)
	}

	fmt.Fprintln(out, "Please visit the following URL and enter the code:")
	fmt.Fprintf(out, "\n  URL:  %s\n", deviceResp.VerificationURI)
	fmt.Fprintf(out, "  Code: %s\n\n", deviceResp.UserCode)

	if deviceResp.VerificationURIComplete != "" {
		fmt.Fprintln(out, "Or visit this URL with the code pre-filled:")
		fmt.Fprintf(out, "  %s\n\n", deviceResp.VerificationURIComplete)

		if !noBrowser {
			if err := auth.OpenBrowser(deviceResp.VerificationURIComplete); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Note: %v\n\n", err)
			}
		}
	}

	fmt.Fprintln(out, "Waiting for authorization...")

	tokenResp, err := oidc.PollForToken(ctx, oidcConfig, deviceResp.DeviceCode, deviceResp.Interval, deviceResp.ExpiresIn)
	if err != nil {
		return fmt.Errorf("failed to obtain token: %w", err)
	}

	creds := &auth.Credentials{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    tokenResp.ExpiresAt(time.Now()),
		IssuerURL:    issuer,
	}

	userInfo, err := oidc.UserInfo(ctx, oidcConfig, tokenResp.AccessToken)
	if err != nil {
		log.Warn("failed to fetch user info", zap.Error(err))
	} else {
		creds.User = *userInfo
	}

	credsPath := config.CredentialsPath()
	if err := auth.Save(creds, credsPath); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	clearCompletionCache("agent-ids")

	fmt.Fprintln(out, "\n✓ Successfully authenticated!")
	if creds.User.Email != "" {
		fmt.Fprintf(out, "Signed in as: %s\n", creds.User.Email)
	}
	fmt.Fprintf(out, "Credentials saved to: %s\n", credsPath)
	return nil
}

func runLoginWithToken(cmd *cobra.Command, expiresIn time.Duration) error {
	token, err := readToken(cmd)
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("no token provided on stdin")
	}

	creds := &auth.Credentials{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(expiresIn),
	}
	credsPath := config.CredentialsPath()
	if err := auth.Save(creds, credsPath); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Token saved")
	fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to: %s\n", credsPath)
	return nil
}

// readToken reads a token without echo from a terminal, or the first line of
// piped stdin.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Paste access token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current authentication status",
		Long:  "Display information about the current session including token expiry and user details.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			creds, err := auth.Load(config.CredentialsPath())
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(out, "Not authenticated.")
					fmt.Fprintln(out, "\nRun 'saple login' to authenticate.")
					return nil
				}
				return fmt.Errorf("failed to load credentials: %w", err)
			}

			fmt.Fprintln(out, "Authentication Status:")
			fmt.Fprintln(out)
			if creds.User.Email != "" {
				fmt.Fprintf(out, "  User:        %s\n", creds.User.Email)
			}
			if creds.IssuerURL != "" {
				fmt.Fprintf(out, "  Issuer:      %s\n", creds.IssuerURL)
			}
			fmt.Fprintf(out, "  Expires At:  %s\n", creds.ExpiresAt.Format(time.RFC1123))

			switch {
			case !creds.IsExpired():
				fmt.Fprintf(out, "  Status:      ✓ Valid (expires in %s)\n", time.Until(creds.ExpiresAt).Round(time.Minute))
			case creds.CanRefresh():
				fmt.Fprintln(out, "  Status:      Expired (will refresh on next request)")
			default:
				fmt.Fprintln(out, "  Status:      ⚠️  EXPIRED")
				fmt.Fprintln(out, "\nYour session has expired. Run 'saple login' to re-authenticate.")
			}
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	credsPath := config.CredentialsPath()

	if _, err := os.Stat(credsPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No credentials found")
		return nil
	}

	if err := auth.Clear(credsPath); err != nil {
		return err
	}
	clearCompletionCache("agent-ids")

	fmt.Fprintln(out, "Logged out successfully")
	fmt.Fprintf(out, "Credentials removed from: %s\n", credsPath)
	return nil
}
