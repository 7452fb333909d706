package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgellow/google-auth/internal/bridge"
	"github.com/dgellow/google-auth/internal/command"
	"github.com/dgellow/google-auth/internal/config"
	"github.com/dgellow/google-auth/internal/googleauth"
	"github.com/dgellow/google-auth/internal/log"
)

var BuildVersion = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: google-auth <command> [flags]

Commands:
  sign-in   run the loopback-redirect browser sign-in flow
  sign-out  revoke an access token (best-effort) and sign out locally
  refresh   exchange a refresh token for new tokens

Credentials come from GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET unless
overridden with flags. Run "google-auth <command> -help" for command flags.
`)
}

func main() {
	version := flag.Bool("version", false, "print version and exit")
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Println(BuildVersion)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	environment, err := config.LoadEnvironment()
	if err != nil {
		log.LogError("Failed to load environment: %v", err)
		os.Exit(1)
	}

	dispatcher := command.NewDispatcher(googleauth.NewDesktop(config.GoogleEndpoints()))

	switch args[0] {
	case "sign-in":
		err = runSignIn(dispatcher, environment, args[1:])
	case "sign-out":
		err = runSignOut(dispatcher, args[1:])
	case "refresh":
		err = runRefresh(dispatcher, environment, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.LogError("%s failed: %v", args[0], err)
		os.Exit(1)
	}
}

func runSignIn(dispatcher *command.Dispatcher, environment config.Environment, args []string) error {
	fs := flag.NewFlagSet("sign-in", flag.ExitOnError)
	clientID := fs.String("client-id", environment.ClientID, "OAuth client id")
	clientSecret := fs.String("client-secret", string(environment.ClientSecret), "OAuth client secret")
	scopes := fs.String("scopes", "", "comma-separated OAuth scopes (required)")
	redirectURI := fs.String("redirect-uri", "", "loopback redirect URI, e.g. http://localhost:8216")
	hostedDomain := fs.String("hosted-domain", "", "restrict sign-in to a Google Workspace domain")
	loginHint := fs.String("login-hint", "", "pre-fill the account chooser")
	successBody := fs.String("success-body", "", "page shown in the browser after the redirect")
	timeout := fs.Duration("timeout", 0, "abandon the flow after this duration (0 waits forever)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := googleauth.SignInRequest{
		ClientID:            *clientID,
		ClientSecret:        *clientSecret,
		HostedDomain:        *hostedDomain,
		LoginHint:           *loginHint,
		RedirectURI:         *redirectURI,
		SuccessHTMLResponse: *successBody,
	}
	if *scopes != "" {
		for s := range strings.SplitSeq(*scopes, ",") {
			if s = strings.TrimSpace(s); s != "" {
				req.Scopes = append(req.Scopes, s)
			}
		}
	}

	return dispatch(dispatcher, bridge.MethodSignIn, req, *timeout)
}

func runSignOut(dispatcher *command.Dispatcher, args []string) error {
	fs := flag.NewFlagSet("sign-out", flag.ExitOnError)
	accessToken := fs.String("access-token", "", "access token to revoke (omit for local-only sign-out)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return dispatch(dispatcher, bridge.MethodSignOut, googleauth.SignOutRequest{
		AccessToken: *accessToken,
	}, 0)
}

func runRefresh(dispatcher *command.Dispatcher, environment config.Environment, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	clientID := fs.String("client-id", environment.ClientID, "OAuth client id")
	clientSecret := fs.String("client-secret", string(environment.ClientSecret), "OAuth client secret")
	refreshToken := fs.String("refresh-token", "", "refresh token (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return dispatch(dispatcher, bridge.MethodRefreshToken, googleauth.RefreshTokenRequest{
		RefreshToken: *refreshToken,
		ClientID:     *clientID,
		ClientSecret: *clientSecret,
	}, 0)
}

func dispatch(dispatcher *command.Dispatcher, method string, req any, timeout time.Duration) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := dispatcher.Dispatch(ctx, method, payload)
	if err != nil {
		return err
	}

	var pretty json.RawMessage = resp
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
