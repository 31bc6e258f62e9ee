// Command client is the UniDocs command line client.
package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/unidocs/internal/client/api"
	"github.com/atinyakov/unidocs/internal/client/config"
	"github.com/atinyakov/unidocs/internal/client/nav"
	"github.com/atinyakov/unidocs/internal/client/session"
	"github.com/atinyakov/unidocs/internal/client/storage"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// app is the state shared by every command.
type app struct {
	configPath string
	baseURL    string
	stateFile  string
	caFile     string
	debug      bool

	cfg     config.Config
	log     *zap.Logger
	store   *storage.BoltStore
	api     *api.Client
	session *session.Session
	router  *nav.Router
	start   string
	out     io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, router: nav.NewRouter("/")}
	root := a.rootCmd()
	err := root.ExecuteContext(ctx)
	a.finish()
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "unidocs",
		Short:             "Browse, share and rate course documents",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", config.DefaultPath(), "path to the client config file")
	f.StringVar(&a.baseURL, "url", "", "server URL (overrides base_url)")
	f.StringVar(&a.stateFile, "state", "", "session file (overrides state_file)")
	f.StringVar(&a.caFile, "ca", "", "CA certificate for HTTPS servers (overrides ca_file)")
	f.BoolVar(&a.debug, "debug", false, "log every request")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.institutionsCmd(),
		a.programsCmd(),
		a.subjectsCmd(),
		a.searchCmd(),
		a.showCmd(),
		a.downloadCmd(),
		a.uploadCmd(),
		a.deleteCmd(),
		a.rateCmd(),
		a.statsCmd(),
		versionCmd(),
	)
	return root
}

// setup loads the config, opens the session store and restores the session.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	cfg.BaseURL = cmp.Or(a.baseURL, cfg.BaseURL)
	cfg.StateFile = cmp.Or(a.stateFile, cfg.StateFile)
	cfg.CAFile = cmp.Or(a.caFile, cfg.CAFile)
	a.cfg = cfg

	a.log = zap.NewNop()
	if a.debug {
		if a.log, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	a.store, err = storage.OpenBolt(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	hc, err := api.NewHTTPClient(cfg.CAFile, 30*time.Second)
	if err != nil {
		return err
	}
	a.api, err = api.New(cfg.BaseURL, a.store, api.WithHTTPClient(hc), api.WithLogger(a.log))
	if err != nil {
		return err
	}
	a.session = session.New(a.store, a.api, a.router, a.log)
	a.start = a.router.Location()
	return a.session.Init(cmd.Context())
}

// finish prints the location when a command moved the navigator and
// releases the session store.
func (a *app) finish() {
	if a.session != nil {
		a.session.Close()
	}
	if a.start != "" && a.router.Location() != a.start {
		fmt.Fprintf(a.out, "location: %s\n", a.router.Location())
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("failed to close session store", zap.Error(err))
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// visit moves the navigator to the view a command renders, so later
// moves (a 401, a finished upload) are reported.
func (a *app) visit(location string) {
	a.router.Navigate(location)
	a.start = a.router.Location()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// No session needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "UniDocs client\nVersion: %s\nBuild date: %s\n",
				cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		},
	}
}
