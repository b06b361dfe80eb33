package ddns_test

import (
	"context"
	"log"
	"os"
	"os/signal"

	ddns "github.com/Travis-Britz/cfddns"
	"github.com/sirupsen/logrus"
)

func ExampleNew() {
	cfg, err := ddns.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %s", err)
	}
	c, err := ddns.New(cfg, ddns.WithLogger(logrus.NewEntry(logrus.StandardLogger())))
	if err != nil {
		log.Fatalf("error creating ddns client: %s", err)
	}
	// run once:
	err = c.RunOnce(context.Background())
	if err != nil {
		log.Fatalf("ddns update failed: %s", err)
	}
}

func ExampleDDNSClient_Run() {
	cfg, err := ddns.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %s", err)
	}
	c, err := ddns.New(cfg,
		ddns.WithLogger(logrus.NewEntry(logrus.StandardLogger())),
		ddns.SkipUnchanged(),
	)
	if err != nil {
		log.Fatalf("error creating ddns client: %s", err)
	}

	// update every 5 minutes until interrupted:
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	c.Run(ctx)
}

func ExampleResolverFunc() {
	cfg, err := ddns.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %s", err)
	}
	fn := func(ctx context.Context) (string, error) {
		// e.g. ask the router instead of a public service
		return "203.0.113.7", nil
	}
	c, err := ddns.New(cfg, ddns.UsingResolver(ddns.ResolverFunc(fn)))
	if err != nil {
		log.Fatalf("error creating ddns client: %s", err)
	}
	if err := c.RunOnce(context.Background()); err != nil {
		log.Fatalf("ddns update failed: %s", err)
	}
}
