package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/pairmatch/games/memory"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	maxPairs       int
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	settleDelay    time.Duration
	sweepInterval  time.Duration
	tlsCert        string
	tlsKey         string
	turnSeconds    int
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.turnSeconds < memory.MinTurnSeconds || c.turnSeconds > memory.MaxTurnSeconds {
		return fmt.Errorf("invalid turn length (must be between %d-%d seconds inclusive): %d",
			memory.MinTurnSeconds, memory.MaxTurnSeconds, c.turnSeconds)
	}
	if c.maxPairs < memory.MinPairs {
		return fmt.Errorf("invalid max pairs (must be at least %d): %d", memory.MinPairs, c.maxPairs)
	}
	if c.settleDelay < 0 {
		return fmt.Errorf("invalid settle delay (must not be negative): %s", c.settleDelay)
	}
	if c.sweepInterval <= 0 {
		return fmt.Errorf("invalid sweep interval (must be positive): %s", c.sweepInterval)
	}
	if c.playerTimeout < 0 {
		return fmt.Errorf("invalid player timeout (must not be negative): %s", c.playerTimeout)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout (must not be negative): %s", c.sessionTimeout)
	}
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
	v.SetEnvPrefix("PAIRMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "pairmatch",
		Short:         "A classroom memory-matching game, played over WebSockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PAIRMATCH_BIND)")
	fs.IntVar(&cfg.maxPairs, "max-pairs", 40, "maximum number of word pairs dealt per round (env: PAIRMATCH_MAX_PAIRS)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", time.Minute, "time before unresponsive players are dropped, 0 to disable (env: PAIRMATCH_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PAIRMATCH_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PAIRMATCH_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PAIRMATCH_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are ended, 0 to disable (env: PAIRMATCH_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.settleDelay, "settle-delay", memory.DefaultSettleDelay, "time both flipped cards stay visible before resolving (env: PAIRMATCH_SETTLE_DELAY)")
	fs.DurationVar(&cfg.sweepInterval, "sweep-interval", memory.DefaultSweepInterval, "how often turn deadlines are checked (env: PAIRMATCH_SWEEP_INTERVAL)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PAIRMATCH_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PAIRMATCH_TLS_KEY)")
	fs.IntVar(&cfg.turnSeconds, "turn-seconds", memory.DefaultTurnSeconds, "default turn length for new rooms, in seconds (env: PAIRMATCH_TURN_SECONDS)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PAIRMATCH_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PAIRMATCH_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("pairmatch v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
