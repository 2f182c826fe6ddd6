package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/pior/trapper/internal/cliconfig"
)

var exampleUsage = strings.TrimSpace(`
  zabbix-sender -z zabbix.example.com -s web-01 -k app.requests -o 42
  zabbix-sender -z zabbix.example.com -i values.txt --retries 3 --keepalive
  zabbix-sender --config $HOME/.zabbix-sender/config.toml -k app.up -o 1
`)

const longHelp = `Send values to the trapper port of a Zabbix server or proxy.

A single value is given with --key and --value. With --input-file, each line
holds "<host> <key> <value>" and everything is sent as one request; a host of
"-" stands for --host. Use "-" as the file name to read standard input.

Settings come from flags, then ZABBIX_SENDER_* environment variables, then the
config file.`

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "zabbix-sender",
		Short:   "Send values to a Zabbix trapper",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			// Past this point failures are about sending, not about usage
			cmd.SilenceUsage = true

			log := cliconfig.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			log.Debug().Interface("config", cfg).Msg("configuration")

			return run(cmd.Context(), cfg, &log, cmd.OutOrStdout())
		},
	}

	flags := root.Flags()
	flags.StringVarP(&cfgPath, "config", "c", "", "path to config file (default: $HOME/.zabbix-sender/config.toml)")
	flags.StringVarP(&cfg.Server, "zabbix-server", "z", cfg.Server, "hostname or IP address of the Zabbix server or proxy")
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "trapper port")
	flags.StringVarP(&cfg.Host, "host", "s", cfg.Host, "monitored host name (default: local host name)")
	flags.StringVarP(&cfg.Key, "key", "k", cfg.Key, "item key")
	flags.StringVarP(&cfg.Value, "value", "o", cfg.Value, "item value")
	flags.StringVarP(&cfg.InputFile, "input-file", "i", cfg.InputFile, `file of "<host> <key> <value>" lines, "-" for standard input`)
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "connect, write and read timeout")
	flags.DurationVar(&cfg.Interval, "interval", cfg.Interval, "minimum time between connection attempts")
	flags.IntVar(&cfg.Retries, "retries", cfg.Retries, "total number of attempts")
	flags.BoolVar(&cfg.KeepAlive, "keepalive", cfg.KeepAlive, "keep the connection open between attempts")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log every attempt")

	return root
}
