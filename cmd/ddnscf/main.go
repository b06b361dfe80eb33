package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ddns "github.com/Travis-Britz/cfddns"
	"github.com/cloudflare/cloudflare-go"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ddnscf",
		Usage: "keep a Cloudflare A record pointed at this host's public IPv4 address",
		Description: fmt.Sprintf("Configuration is read from %s, %s, %s and %s,\n"+
			"optionally loaded from a .env file in the working directory.",
			ddns.EnvAPIToken, ddns.EnvZoneID, ddns.EnvRecordID, ddns.EnvDomain),
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{Name: "env-file", Usage: "load environment variables from `FILE` instead of .env"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
		}, runFlags()...),
		Action: run,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "update the record now and then on every interval (default)",
				Action: run,
			},
			{
				Name:  "once",
				Usage: "update the record a single time and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ip", Usage: "write `ADDR` instead of looking up the public IP"},
				},
				Action: once,
			},
			{
				Name:      "lookup",
				Usage:     "print the zone and record IDs for a domain",
				ArgsUsage: "[domain]",
				Action:    lookup,
			},
			{
				Name:   "verify",
				Usage:  "check that the API token is active",
				Action: verify,
			},
		},
	}
}

// runFlags are only defined on the app: a flag defined again on a subcommand
// would shadow the value given before the command name.
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{Name: "interval", Value: ddns.DefaultInterval, Usage: "wait between updates"},
		&cli.BoolFlag{Name: "skip-unchanged", Usage: "only send an update when the public IP changed since the last accepted one"},
		&cli.BoolFlag{Name: "strict", Usage: "treat updates rejected by Cloudflare as errors instead of only logging them"},
	}
}

func newLogger(c *cli.Context) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if c.Bool("verbose") {
		l.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(l)
}

func newClient(c *cli.Context, logger *logrus.Entry, extra ...ddns.Option) (ddns.DDNSClient, error) {
	cfg, err := ddns.LoadConfig(c.StringSlice("env-file")...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Debugf("config is valid: %s", cfg)

	return ddns.New(cfg, append([]ddns.Option{ddns.WithLogger(logger)}, extra...)...)
}

func run(c *cli.Context) error {
	logger := newLogger(c)
	opts := []ddns.Option{ddns.WithInterval(c.Duration("interval"))}
	if c.Bool("skip-unchanged") {
		opts = append(opts, ddns.SkipUnchanged())
	}
	if c.Bool("strict") {
		opts = append(opts, ddns.StrictProviderErrors())
	}
	client, err := newClient(c, logger, opts...)
	if err != nil {
		return err
	}
	return client.Run(c.Context)
}

func once(c *cli.Context) error {
	logger := newLogger(c)
	var opts []ddns.Option
	if ip := c.String("ip"); ip != "" {
		r, err := ddns.FromString(ip)
		if err != nil {
			return fmt.Errorf("invalid --ip: %w", err)
		}
		opts = append(opts, ddns.UsingResolver(r))
	}
	if c.Bool("strict") {
		opts = append(opts, ddns.StrictProviderErrors())
	}
	client, err := newClient(c, logger, opts...)
	if err != nil {
		return err
	}
	return client.RunOnce(c.Context)
}

func lookup(c *cli.Context) error {
	if err := ddns.LoadEnv(c.StringSlice("env-file")...); err != nil {
		return err
	}
	domain := c.Args().First()
	if domain == "" {
		domain = os.Getenv(ddns.EnvDomain)
	}
	if domain == "" {
		return fmt.Errorf("lookup: pass a domain or set %s", ddns.EnvDomain)
	}

	api, err := newAPI()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()
	ids, err := ddns.LookupRecordIDs(ctx, api, domain)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	id := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Printf("zone   %-30s %s=%s\n", ids.ZoneName, ddns.EnvZoneID, id(ids.ZoneID))
	for _, r := range ids.Records {
		fmt.Printf("record %-30s %s=%s (%s)\n", r.Name, ddns.EnvRecordID, id(r.ID), r.Content)
	}
	return nil
}

func verify(c *cli.Context) error {
	if err := ddns.LoadEnv(c.StringSlice("env-file")...); err != nil {
		return err
	}
	api, err := newAPI()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
	defer cancel()
	result, err := api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	fmt.Println(color.GreenString("token verified successfully"))
	return nil
}

// newAPI builds a Cloudflare client from the environment,
// prompting for the token when it is unset and stdin is a terminal.
func newAPI() (*cloudflare.API, error) {
	key := os.Getenv(ddns.EnvAPIToken)
	if key == "" {
		var err error
		if key, err = readKey(); err != nil {
			return nil, err
		}
	}
	api, err := cloudflare.NewWithAPIToken(key, cloudflare.HTTPClient(ddns.DefaultHTTPClient))
	if err != nil {
		return nil, fmt.Errorf("error creating api client: %w", err)
	}
	return api, nil
}

func readKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%s not set", ddns.EnvAPIToken)
	}
	fmt.Fprintf(os.Stderr, "Enter Cloudflare API Token: ")
	bytekey, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("error reading from stdin: %w", err)
	}
	key := strings.TrimSpace(string(bytekey))
	if key == "" {
		return "", errors.New("empty API token")
	}
	return key, nil
}
