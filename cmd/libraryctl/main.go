package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"media-library/internal/authz"
	"media-library/internal/logging"
	"media-library/internal/mediaerr"
	"media-library/internal/photolibrary"
	"media-library/internal/render"
	"media-library/internal/startup"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	mediaDir    string
	databaseDir string
	authMode    string
	quiet       bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCommand()
	err := root.ExecuteContext(ctx)
	// libvips cannot restart, so it is stopped once per process.
	render.ShutdownVips()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "libraryctl",
		Short: "Inspect and modify a media library from the command line",
		Long: `libraryctl opens the media library catalogue in-process and runs one
operation against it. Configuration comes from the same environment
variables the server reads; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if g.quiet {
				logging.SetLevel(logging.LevelWarn)
			}
			if err := render.InitVips(); err != nil {
				logging.Warn("libvips failed to start, using pure-Go decoders: %v", err)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.mediaDir, "media-dir", "", "media directory (overrides MEDIA_DIR)")
	flags.StringVar(&g.databaseDir, "database-dir", "", "catalogue directory (overrides DATABASE_DIR)")
	flags.StringVar(&g.authMode, "auth-mode", "", "authorization mode: prompt, grant or deny (overrides AUTH_MODE)")
	flags.BoolVarP(&g.quiet, "quiet", "q", false, "only log warnings and errors")

	root.AddCommand(
		newIndexCommand(g),
		newAuthorizeCommand(g),
		newLibraryCommand(g),
		newAlbumsCommand(g),
		newMomentsCommand(g),
		newThumbnailCommand(g),
		newPhotoCommand(g),
		newBytesCommand(g),
		newSaveImageCommand(g),
		newSaveVideoCommand(g),
		newFavoriteCommand(g),
		newVersionCommand(),
	)
	return root
}

// getenv reads the environment with flag overrides applied.
func (g *globals) getenv(key string) string {
	switch {
	case key == "MEDIA_DIR" && g.mediaDir != "":
		return g.mediaDir
	case key == "DATABASE_DIR" && g.databaseDir != "":
		return g.databaseDir
	case key == "AUTH_MODE" && g.authMode != "":
		return g.authMode
	}
	return os.Getenv(key)
}

// open builds a library service without the background indexer.
func (g *globals) open(ctx context.Context) (*photolibrary.Service, error) {
	config, err := startup.ReadConfig(g.getenv)
	if err != nil {
		return nil, err
	}
	libConfig := config.Library(0)
	libConfig.Index = false
	libConfig.Watch = false
	return photolibrary.New(ctx, libConfig)
}

// withLibrary opens the library, obtains the capabilities the command
// needs, runs fn and closes the library.
func (g *globals) withLibrary(cmd *cobra.Command, auth photolibrary.AuthorizationOptions,
	fn func(ctx context.Context, lib *photolibrary.Service) error,
) (err error) {
	ctx := cmd.Context()
	lib, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := lib.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if auth.Read || auth.Write {
		if err := lib.RequestAuthorization(ctx, auth); err != nil {
			return err
		}
	}
	return fn(ctx, lib)
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error [%s]: %v\n", mediaerr.Code(err), err)
	if target, ok := authz.RedirectTarget(err); ok {
		fmt.Fprintf(w, "Grant access in settings: %s\n", target)
	}
}
