package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yugasun/Feishu-MCP/internal/adapters/driving/oauth"
	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage user authorization",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize a user interactively",
	Long: `Run the OAuth authorization flow for the configured user key.

Prints the authorization URL, starts the local callback server, and
waits until the user completes the grant in a browser. The resulting
credential lives only in this process; run this inside the serving
process's lifetime or use 'serve', which hosts the same callback.`,
	RunE: runAuthLogin,
}

// authLoginTimeout bounds how long we wait for the browser grant.
const authLoginTimeout = 5 * time.Minute

func init() {
	authCmd.AddCommand(authLoginCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	if os.Getenv("FEISHU_APP_SECRET") == "" {
		if secret, err := promptSecret(); err == nil && secret != "" {
			os.Setenv("FEISHU_APP_SECRET", secret)
		}
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	if a.cfg.Mode() != domain.AuthModeUser {
		return fmt.Errorf("%w: auth login requires auth_mode = %q", domain.ErrInvalidInput, domain.AuthModeUser)
	}

	url, err := a.user.AuthorizationURL(a.cfg.Identity())
	if err != nil {
		return err
	}

	callback := oauth.NewCallbackServer(a.cfg.CallbackPort, a.user)
	if err := callback.Start(); err != nil {
		return fmt.Errorf("starting callback server: %w", err)
	}
	defer callback.Stop(context.Background()) //nolint:errcheck

	cmd.Println("Open this URL in your browser to authorize:")
	cmd.Println()
	cmd.Println("  " + url)
	cmd.Println()
	cmd.Printf("Waiting for the callback on port %d...\n", callback.Port())

	ctx, cancel := context.WithTimeout(cmd.Context(), authLoginTimeout)
	defer cancel()

	if err := callback.Wait(ctx); err != nil {
		return fmt.Errorf("authorization did not complete: %w", err)
	}
	cmd.Println("Authorization complete.")
	return nil
}

// promptSecret reads the app secret without echo when running on a
// terminal and no secret is configured yet.
func promptSecret() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}
	fmt.Fprint(os.Stderr, "App secret (leave empty to use config file): ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
