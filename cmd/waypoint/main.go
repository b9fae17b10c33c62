// Command waypoint serves a directory of routes and manages the state it leaves behind.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xy-planning-network/waypoint/basecamp"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "waypoint",
		Short: "A filesystem-convention HTTP router with managed sessions",
		Long: `waypoint resolves request paths by walking a directory of routes,
establishing a signed session for every client along the way.

Configuration is read from the environment (and a .env file, if present);
flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		sweepCmd(),
		routesCmd(),
		versionCmd(),
	)

	return rootCmd
}

// sharedFlags are the flags every command assembling a *basecamp.Basecamp accepts.
type sharedFlags struct {
	routesDir  string
	store      string
	sessionDir string
	uploadDir  string
}

func (f *sharedFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.routesDir, "routes", "", "directory of routes to scan (ROUTES_DIR)")
	cmd.Flags().StringVar(&f.store, "store", "", "session store: files, memory, redis, or postgres (SESSION_STORE)")
	cmd.Flags().StringVar(&f.sessionDir, "session-dir", "", "directory of the files session store (SESSION_DIR)")
	cmd.Flags().StringVar(&f.uploadDir, "upload-dir", "", "directory uploads are staged in (UPLOAD_DIR)")
}

// options turns the flags that were set into basecamp Options.
func (f *sharedFlags) options(cmd *cobra.Command) []basecamp.Option {
	var opts []basecamp.Option
	if cmd.Flags().Changed("routes") {
		opts = append(opts, basecamp.WithRoutesDir(f.routesDir))
	}

	opts = append(opts, func(b *basecamp.Basecamp) error {
		if cmd.Flags().Changed("store") {
			b.Session.Store = basecamp.StoreMode(f.store)
		}

		if cmd.Flags().Changed("session-dir") {
			b.Session.Dir = f.sessionDir
		}

		if cmd.Flags().Changed("upload-dir") {
			b.UploadDir = f.uploadDir
		}

		return nil
	})

	return opts
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.YellowString("!"), fmt.Sprintf(format, args...))
}
