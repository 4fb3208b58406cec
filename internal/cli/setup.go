package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"bachbot/internal/config"
	"bachbot/internal/mastodon"

	"github.com/spf13/cobra"
)

const appName = "Bach Bot"

func newSetupCmd(a *app) *cobra.Command {
	var instance string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the bot with a Mastodon instance and store the credentials",
		Long: `Register an application on your Mastodon instance, walk through the
authorization step in the browser, and save the client key, client secret
and access token to the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(a.stdin)

			fmt.Fprintln(a.stdout, "Bach Bot Mastodon Setup")
			fmt.Fprintln(a.stdout, strings.Repeat("=", 30))
			if instance == "" {
				var err error
				instance, err = prompt(in, a.stdout, "Enter your Mastodon instance URL (e.g., https://mastodon.social): ")
				if err != nil {
					return err
				}
			}
			instance = normalizeInstance(instance)
			if instance == "" {
				return errors.New("an instance URL is required")
			}

			fmt.Fprintf(a.stdout, "\nRegistering application with %s...\n", instance)
			registered, err := mastodon.RegisterApp(cmd.Context(), instance, appName, mastodon.DefaultScopes)
			if err != nil {
				return err
			}

			oauthCfg := mastodon.OAuthConfig(instance, registered.ClientID, registered.ClientSecret, mastodon.DefaultScopes)
			fmt.Fprintln(a.stdout, "\nPlease visit this URL to authorize the application:")
			fmt.Fprintln(a.stdout, oauthCfg.AuthCodeURL(""))

			code, err := prompt(in, a.stdout, "\nEnter the authorization code from the website: ")
			if err != nil {
				return err
			}
			token, err := mastodon.ExchangeCode(cmd.Context(), oauthCfg, code)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Access token obtained successfully!")

			store := a.store()
			cfg, err := store.Load()
			if err != nil {
				cfg = config.Default()
			}
			cfg.Mastodon = config.Mastodon{
				InstanceURL:  instance,
				ClientKey:    registered.ClientID,
				ClientSecret: registered.ClientSecret,
				AccessToken:  token,
			}
			if err := store.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "\nConfiguration saved to %s\n", store.Path())
			fmt.Fprintln(a.stdout, "You can now run the bot with: bachbot run")
			return nil
		},
	}
	cmd.Flags().StringVar(&instance, "instance", "", "Mastodon instance URL; prompted for when empty")
	return cmd
}

func normalizeInstance(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http") {
		s = "https://" + s
	}
	return strings.TrimSuffix(s, "/")
}

func prompt(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
