package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrsteele09/go-partner-dashboard/auth"
	"github.com/jrsteele09/go-partner-dashboard/gateway"
	"github.com/jrsteele09/go-partner-dashboard/session"
	"github.com/jrsteele09/go-partner-dashboard/users"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "partner-dashboard", "session")
}

// terminal reports gateway effects on stderr so stdout stays pipeable
type terminal struct {
	out io.Writer
}

func (t terminal) SignIn() {
	fmt.Fprintln(t.out, "Signed out. Run \"dashboard login\" to sign in again.")
}

func (t terminal) Success(message string) {
	fmt.Fprintln(t.out, "✔ "+message)
}

func (t terminal) Error(message string) {
	fmt.Fprintln(t.out, "✘ "+message)
}

func (state *cliState) store() (*session.FileStore, error) {
	store, err := session.NewFileStore(state.sessionFile, state.config.GetSessionSecret())
	if errors.Is(err, session.ErrNoSecret) {
		return nil, fmt.Errorf("set SESSION_SECRET to keep a command line session: %w", err)
	}
	return store, err
}

func loginCmd(state *cliState) *cobra.Command {
	var (
		identifier string
		password   string
		remember   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.store()
			if err != nil {
				return err
			}

			if password == "" {
				password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			_, statErr := os.Stat(store.Path())
			hadStoredSession := statErr == nil

			service := auth.NewLoginService(state.config, nil)
			signedIn, err := service.Login(cmd.Context(), store, auth.Credentials{
				Identifier: identifier,
				Password:   password,
				RememberMe: remember,
			})
			if err != nil {
				return err
			}

			if !remember {
				if hadStoredSession {
					fmt.Fprintf(cmd.ErrOrStderr(), "Removed the stored session in %s.\n", store.Path())
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Signed in for this command only (--remember=false).")
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Signed in as %s\n", userLabel(signedIn, identifier))
			return nil
		},
	}

	cmd.Flags().StringVarP(&identifier, "identifier", "u", "", "Email or phone number")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	cmd.Flags().BoolVar(&remember, "remember", true, "Keep the session in the session file")
	_ = cmd.MarkFlagRequired("identifier")
	return cmd
}

func fetchCmd(state *cliState) *cobra.Command {
	var (
		data   string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "fetch [METHOD] PATH",
		Short: "Call the backend API with the stored session",
		Example: `  dashboard fetch /api/partners/ -q page=2 -q page_size=50
  dashboard fetch PATCH /api/partners/7/ -d '{"name":"Acme"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.store()
			if err != nil {
				return err
			}

			method, path := http.MethodGet, args[0]
			if len(args) == 2 {
				method, path = strings.ToUpper(args[0]), args[1]
			}

			query := url.Values{}
			for _, p := range params {
				k, v, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("query parameter %q is not key=value", p)
				}
				query.Add(k, v)
			}

			req := gateway.Request{Method: method, Path: path, Query: query, Header: http.Header{}}
			if data != "" {
				req.Body = []byte(data)
				req.Header.Set("Content-Type", "application/json")
			}

			effects := terminal{out: cmd.ErrOrStderr()}
			client, err := gateway.New(state.config,
				gateway.WithStore(store),
				gateway.WithNavigator(effects),
				gateway.WithNotifier(effects),
			)
			if err != nil {
				return err
			}

			res, err := client.Fetch(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&params, "query", "q", nil, "Query parameter as key=value (repeatable)")
	return cmd
}

func whoamiCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.store()
			if err != nil {
				return err
			}
			s, err := store.Get()
			if err != nil {
				return err
			}
			if s.AccessToken == "" {
				return errors.New("not signed in")
			}

			out := cmd.OutOrStdout()
			if len(s.User) > 0 {
				var user bytes.Buffer
				if err := json.Indent(&user, s.User, "", "  "); err == nil {
					fmt.Fprintln(out, user.String())
				}
			}
			if tok := s.OAuth2Token(); !tok.Expiry.IsZero() {
				fmt.Fprintf(out, "access token expires %s (%s)\n", tok.Expiry.Format(time.RFC3339), time.Until(tok.Expiry).Round(time.Second))
			}
			if exp, ok := session.TokenExpiry(s.RefreshToken); ok {
				fmt.Fprintf(out, "session ends %s\n", exp.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func logoutCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.store()
			if err != nil {
				return err
			}
			return auth.Logout(store, terminal{out: cmd.ErrOrStderr()})
		},
	}
}

// readPassword reads without echo from a terminal and reads one line from
// anything else, so passwords can be piped in
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(password), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printResponse(out io.Writer, res *gateway.Response) error {
	if res.Raw != nil {
		defer res.Raw.Body.Close()
		_, err := io.Copy(out, res.Raw.Body)
		return err
	}
	if len(res.Body) == 0 {
		return nil
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, res.Body, "", "  "); err != nil {
		_, err = out.Write(res.Body)
		return err
	}
	_, err := fmt.Fprintln(out, pretty.String())
	return err
}

func userLabel(s session.Session, fallback string) string {
	if u, err := users.Parse(s.User); err == nil && u.Login() != "" {
		return u.Login()
	}
	return fallback
}
