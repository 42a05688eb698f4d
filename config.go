/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind       string
	corsOrigin string
	port       int
	prefix     string
	profile    bool
	staticDir  string
	tlsCert    string
	tlsKey     string
	verbose    bool
	version    bool

	origins []string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.staticDir != "" {
		info, err := os.Stat(c.staticDir)
		if err != nil {
			return fmt.Errorf("invalid static directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("invalid static directory (not a directory): %s", c.staticDir)
		}
	}

	c.origins = c.origins[:0]
	for _, origin := range strings.Split(c.corsOrigin, ",") {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		if origin != "" {
			c.origins = append(c.origins, origin)
		}
	}

	c.prefix = strings.TrimSuffix(c.prefix, "/")

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FLAMESBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "flamesbox",
		Short:         "Find out what two names really think of each other, FLAMES style.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: FLAMESBOX_BIND)")
	fs.StringVar(&cfg.corsOrigin, "cors-origin", "*", "comma-separated origins allowed to call the api (env: FLAMESBOX_CORS_ORIGIN)")
	fs.IntVarP(&cfg.port, "port", "p", 5000, "port to listen on (env: FLAMESBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: FLAMESBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: FLAMESBOX_PROFILE)")
	fs.StringVar(&cfg.staticDir, "static-dir", "", "serve the frontend from this build directory instead of the embedded one (env: FLAMESBOX_STATIC_DIR)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: FLAMESBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: FLAMESBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: FLAMESBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: FLAMESBOX_VERSION)")

	// PORT is honoured for hosting platforms that assign one.
	_ = v.BindEnv("port", "FLAMESBOX_PORT", "PORT")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("flamesbox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
