package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/niels/pageserve/pkg/accesslog"
	"github.com/niels/pageserve/pkg/config"
	"github.com/niels/pageserve/pkg/logging"
	"github.com/niels/pageserve/pkg/mediatype"
	"github.com/niels/pageserve/pkg/resolver"
	"github.com/niels/pageserve/pkg/router"
	"github.com/niels/pageserve/pkg/server"
	"github.com/niels/pageserve/pkg/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ServeFunc runs handler until ctx is cancelled
type ServeFunc func(ctx context.Context, opts server.Options, handler http.Handler, logger zerolog.Logger) error

var (
	configPath  string
	envFile     string
	addr        string
	publicDir   string
	debug       bool
	showVersion bool
	noColor     bool
	cfg         *config.Config
)

// NewRootCmd creates the root command for pageserve
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithServe(server.Run)
}

// NewRootCmdWithServe creates the root command with a custom serve function
// This is primarily used for testing
func NewRootCmdWithServe(serve ServeFunc) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   version.AppName,
		Short: version.Description,
		Long: fmt.Sprintf(`%s - %s

Serves files from the public directory. GET / redirects to the home page,
GET /home and GET /controller serve their configured pages, and any other
GET path is looked up in the public directory.
`, version.AppName, version.Description),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}

			if err := config.LoadEnvFile(envFile); err != nil {
				return err
			}

			if configPath != "" {
				cfg = config.LoadOrDefault(configPath)
			} else {
				cfg = config.LoadDefault()
				cfg.ApplyEnv()
			}

			logging.InitGlobalLogger(debug, cfg)
			logging.Info("Initializing pageserve")

			if configPath != "" {
				logging.InfoWith("Loaded configuration", map[string]interface{}{
					"path": configPath,
				})
			} else {
				logging.Debug("Using default configuration")
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
				return nil
			}

			// Flags win over file and environment
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if publicDir != "" {
				cfg.Dir.Public = publicDir
			}

			if err := cfg.Validate(); err != nil {
				logging.ErrorWith("Invalid configuration", map[string]interface{}{
					"error": err.Error(),
				})
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if stat, err := os.Stat(cfg.Dir.Public); err != nil || !stat.IsDir() {
				logging.WarnWith("Public directory is not accessible", map[string]interface{}{
					"dir": cfg.Dir.Public,
				})
			}

			types := mediatype.NewTable(cfg.ContentTypes)
			res := resolver.NewOSResolver(cfg.Dir.Public, logging.WithComponent("resolver"))
			rt := router.New(res, types, router.RoutesFromConfig(cfg), logging.WithComponent("router"))

			access := accesslog.NewLogger(cfg.Logging, logging.GetLogger())
			defer access.Close()

			logging.InfoWith("Media types registered", map[string]interface{}{
				"extensions": types.Extensions(),
			})
			printBanner(cmd.OutOrStdout(), cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := server.Options{
				Addr:              cfg.Server.Addr,
				ShutdownTimeout:   time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
				ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
			}
			if err := serve(ctx, opts, access.Wrap(rt), logging.WithComponent("server")); err != nil {
				logging.ErrorWith("Server failed", map[string]interface{}{
					"error": err.Error(),
				})
				return fmt.Errorf("server failed: %w", err)
			}

			logging.Info("Server stopped")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", ".env", "Path to a dotenv file with environment overrides")
	rootCmd.PersistentFlags().StringVarP(&addr, "addr", "a", "", "Address to listen on (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&publicDir, "public-dir", "p", "", "Directory to serve (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug mode")
	rootCmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version information")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return rootCmd
}

func printBanner(w io.Writer, cfg *config.Config) {
	name := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s serving %s on %s\n",
		name(version.AppName),
		color.GreenString(cfg.Dir.Public),
		color.YellowString(displayURL(cfg.Server.Addr)))
	fmt.Fprintf(w, "  GET / -> %s\n", cfg.Location.Home)
	fmt.Fprintln(w, "Press Ctrl+C to stop")
}

// displayURL turns a listen address into a URL a browser can open
func displayURL(listenAddr string) string {
	if strings.HasPrefix(listenAddr, ":") {
		return "http://localhost" + listenAddr
	}
	return "http://" + listenAddr
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
