// uploadctl is a one-shot command-line front end for the avatar
// publication core, standing in for the graphical front end's file
// picker, credential dialog, and progress window (all out of scope per
// spec §1). It publishes a single .3b bundle and exits.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Kavex/Third3D-uploader/internal/archive"
	"github.com/Kavex/Third3D-uploader/internal/config"
	"github.com/Kavex/Third3D-uploader/internal/logging"
	"github.com/Kavex/Third3D-uploader/internal/prompt"
	"github.com/Kavex/Third3D-uploader/internal/publish"
	"github.com/Kavex/Third3D-uploader/internal/secretstore"
	"github.com/Kavex/Third3D-uploader/internal/serviceclient"
	"github.com/Kavex/Third3D-uploader/internal/upload"
)

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// authFailure carries a distinct exit code for the credentials-prompt
// branch of spec §7's "user-visible failure" policy, so scripts driving
// uploadctl can tell an auth problem apart from every other failure.
type authFailure struct{ cause error }

func (e *authFailure) Error() string { return e.cause.Error() }
func (e *authFailure) Unwrap() error { return e.cause }
func (e *authFailure) ExitCode() int { return 2 }

func run() error {
	var bundlePath, username, password string

	flagSet := pflag.NewFlagSet("uploadctl", pflag.ContinueOnError)
	flagSet.StringVar(&bundlePath, "bundle", "", "path to the .3b avatar bundle to publish")
	flagSet.StringVar(&username, "username", "", "account username (prompted if omitted)")
	flagSet.StringVar(&password, "password", "", "account password (prompted if omitted; prefer the prompt over this flag)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return nil
	}
	if bundlePath == "" {
		return errors.New("missing required flag --bundle")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	cfg := config.LoadConfig()

	appConfig := secretstore.NewAppConfigStore(cfg.KeychainService)
	credentials := secretstore.NewCredentialStore(cfg.KeychainService)

	reader := bufio.NewReader(os.Stdin)
	client, session, err := authenticate(ctx, cfg, credentials, appConfig, reader, username, password)
	if err != nil {
		return &authFailure{cause: err}
	}
	defer session.Logout(context.Background(), client, logger)

	bundle, err := archive.Open(bundlePath)
	if err != nil {
		return fmt.Errorf("open bundle: %w", err)
	}
	defer bundle.Close()

	driver := upload.New(http.DefaultClient, cfg.UserAgent())
	publisher := publish.NewPublisher(client, driver, cfg, logger)

	sink := make(chan publish.Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range sink {
			printEvent(os.Stdout, event)
		}
	}()

	err = publisher.Publish(ctx, bundle, sink)
	<-done
	return err
}

// authenticate resolves a session either by reusing stored cookies or
// by walking the credentials/two-factor prompt flow, per spec §4.6's
// login state machine.
func authenticate(ctx context.Context, cfg *config.Runtime, credentials *secretstore.CredentialStore, appConfig *secretstore.AppConfigStore, reader *bufio.Reader, username, password string) (*serviceclient.Client, *publish.Session, error) {
	session := publish.NewSession(credentials)

	if username == "" {
		last, err := appConfig.Load()
		if err == nil && last.LastUsername != "" {
			username = last.LastUsername
		}
	}
	if username == "" {
		var err error
		username, err = prompt.Line(reader, os.Stdout, "Username: ")
		if err != nil {
			return nil, nil, err
		}
	}

	if cookies, ok, err := credentials.Load(username); err == nil && ok {
		client := serviceclient.New(cfg, cookies)
		result, err := client.GetUserByCookies(ctx)
		if err == nil && result.Kind == serviceclient.AuthResultUser {
			session.State = publish.SessionAuthenticated
			session.Username = username
			session.Cookies = cookies
			if err := appConfig.SetLastUsername(username); err != nil {
				return nil, nil, err
			}
			return client, session, nil
		}
	}

	if password == "" {
		var err error
		password, err = prompt.Password(os.Stdout)
		if err != nil {
			return nil, nil, err
		}
	}

	client := serviceclient.New(cfg, serviceclient.Cookies{})
	outcome, client, err := session.Login(ctx, client, username, password)
	if err != nil {
		return nil, nil, err
	}

	if outcome.TwoFactorRequired {
		code, err := prompt.TwoFactorCode(reader, os.Stdout, string(outcome.TwoFactorKind))
		if err != nil {
			return nil, nil, err
		}
		client, err = session.SubmitTwoFactor(ctx, client, code)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := appConfig.SetLastUsername(username); err != nil {
		return nil, nil, err
	}
	return client, session, nil
}

func printEvent(w *os.File, event publish.Event) {
	switch event.Kind {
	case publish.EventInit:
		fmt.Fprintln(w, "starting publication")
	case publish.EventThumbnail:
		fmt.Fprintln(w, "uploading thumbnail")
	case publish.EventWaiting:
		fmt.Fprintln(w, "uploading platform bundles")
	case publish.EventBundle:
		fmt.Fprintf(w, "platform %d/%d: part %d/%d\n", event.PlatformIndex+1, event.TotalPlatforms, event.Part, event.TotalParts)
	case publish.EventCompleted:
		fmt.Fprintln(w, "publication complete")
	case publish.EventError:
		fmt.Fprintf(w, "publication failed: %v\n", event.Err)
	}
}
