package config

import (
	"flag"
	"os"
	"time"

	"github.com/Kavex/Third3D-uploader/internal/flagx"
)

// parseFlags populates selected Runtime fields from command-line flags.
//
// Supported flags:
//
//	-base-url string   base URL of the Service's REST API (default from Runtime)
//	-timeout int       control-plane request timeout in seconds (default from Runtime)
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other
// components (notably cmd/uploadctl's own pflag-based flags).
func parseFlags(cfg *Runtime) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-base-url", "-timeout"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the Service's REST API")
	timeoutSeconds := fs.Int("timeout", int(cfg.ControlPlaneTimeout.Seconds()), "control-plane request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ControlPlaneTimeout = time.Duration(*timeoutSeconds) * time.Second
}
