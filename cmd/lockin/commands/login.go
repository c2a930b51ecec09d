package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/benvon/lockin/internal/client"
	"github.com/benvon/lockin/internal/config"
	"github.com/benvon/lockin/internal/services/oidc"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const loginTimeout = 5 * time.Minute

func newLoginCmd(a *app) *cobra.Command {
	var paste bool
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Sign in through the API's identity provider and store the token",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationAuth: authNone},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
			defer cancel()

			api := client.New(a.cfg.APIURL, "", client.WithLogger(a.log))
			lc, err := api.LoginConfig(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch login configuration: %w", err)
			}

			oc := oidc.NewPublicClient(lc)
			verifier := oauth2.GenerateVerifier()
			state := uuid.NewString()
			authURL := oc.AuthCodeURL(state, verifier)

			var code string
			if callback, ok := loopbackCallback(lc.RedirectURI); ok && !paste {
				code, err = awaitCallback(ctx, callback, state, authURL, cmd.OutOrStdout(), a.log)
			} else {
				code, err = promptCode(cmd.InOrStdin(), cmd.OutOrStdout(), authURL)
			}
			if err != nil {
				return err
			}

			tok, err := oc.ExchangeCode(ctx, code, verifier)
			if err != nil {
				return fmt.Errorf("failed to exchange code: %w", err)
			}
			bearer := oidc.BearerToken(tok)
			if bearer == "" {
				return errors.New("identity provider returned no token")
			}

			me, err := client.New(a.cfg.APIURL, bearer, client.WithLogger(a.log)).Me(ctx)
			if err != nil {
				return err
			}
			if me == nil || me.User == nil {
				return errors.New("the API did not accept the new token")
			}
			if err := config.SaveToken(a.cfg.TokenPath, bearer); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", me.User.Email)
			return nil
		},
	}
	cmd.Flags().BoolVar(&paste, "paste", false, "Paste the authorization code instead of listening for the redirect")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Remove the stored token",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationAuth: authNone},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(a.cfg.TokenPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			if os.Getenv("LOCKIN_API_TOKEN") != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "LOCKIN_API_TOKEN is still set in the environment.")
			}
			return nil
		},
	}
}

// loopbackCallback reports whether redirect points at this machine over
// plain http, which the CLI can serve itself.
func loopbackCallback(redirect string) (*url.URL, bool) {
	u, err := url.Parse(redirect)
	if err != nil || u.Scheme != "http" {
		return nil, false
	}
	switch u.Hostname() {
	case "127.0.0.1", "localhost", "::1":
		return u, true
	}
	return nil, false
}

// awaitCallback serves the redirect URI until the provider sends the code.
func awaitCallback(ctx context.Context, callback *url.URL, state, authURL string, out io.Writer, log *zap.Logger) (string, error) {
	path := callback.Path
	if path == "" {
		path = "/"
	}

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)

	r := mux.NewRouter()
	r.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		res := result{code: q.Get("code")}
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("identity provider error: %s", q.Get("error"))
		case q.Get("state") != state:
			res.err = errors.New("state mismatch in login callback")
		case res.code == "":
			res.err = errors.New("login callback carried no code")
		}
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			_, _ = io.WriteString(w, "Signed in. You can close this tab and return to the terminal.\n")
		}
		select {
		case results <- res:
		default:
		}
	}).Methods(http.MethodGet)

	ln, err := net.Listen("tcp", callback.Host)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", callback.Host, err)
	}
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("login_callback_server_failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(out, "Open this URL to sign in:\n\n  %s\n\nWaiting for the redirect to %s ...\n", authURL, callback.String())

	select {
	case res := <-results:
		return res.code, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("login timed out: %w", ctx.Err())
	}
}

func promptCode(in io.Reader, out io.Writer, authURL string) (string, error) {
	fmt.Fprintf(out, "Open this URL to sign in:\n\n  %s\n\nPaste the authorization code: ", authURL)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", errors.New("no authorization code entered")
	}
	return code, nil
}
