// topicmaker creates the broker topics the shop needs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/artshop/config"
	"github.com/niksmo/artshop/internal/adapter"
	"github.com/niksmo/artshop/pkg/sigctx"
	"github.com/spf13/pflag"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	cleanupDelete  = "delete"
	cleanupCompact = "compact"
)

// A topicPlan is one topic to create. Order events and the sales table
// must share the partition count, goka joins them by partition.
type topicPlan struct {
	name    string
	cleanup string
	// retention is kept only for delete topics.
	retention time.Duration
}

type layout struct {
	partitions        int32
	replicationFactor int16
	minISR            string
}

func main() {
	var l layout
	fs := pflag.NewFlagSet("topicmaker", pflag.ContinueOnError)
	fs.Int32Var(&l.partitions, "partitions", 3, "partitions per topic")
	fs.Int16Var(&l.replicationFactor, "replication-factor", 3, "replicas per partition")
	fs.StringVar(&l.minISR, "min-insync-replicas", "1", "min.insync.replicas")
	fs.String("config", "", "config file") // read by config.Load
	fs.ParseErrorsWhitelist.UnknownFlags = true
	_ = fs.Parse(os.Args[1:])

	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()

	cl := createClient(cfg.Broker)
	defer cl.Close()

	plans := []topicPlan{
		{name: cfg.Broker.Topics.OrderEvents, cleanup: cleanupDelete, retention: 7 * 24 * time.Hour},
		{name: toGroupTable(cfg.Broker.Consumers.ProductSalesGroup), cleanup: cleanupCompact},
	}

	printStart(plans)
	start := time.Now()

	if err := makeTopics(sigCtx, cl, l, plans); err != nil {
		fmt.Printf("failed to create topics: \n%s\n", err)
		os.Exit(1)
	}
	if err := checkPartitions(sigCtx, cl, plans); err != nil {
		fmt.Printf("topic layout mismatch: \n%s\n", err)
		os.Exit(1)
	}

	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func createClient(bc config.Broker) *kadm.Client {
	opts := []kgo.Opt{kgo.SeedBrokers(bc.SeedBrokers...)}
	if bc.TLS.Enabled() {
		tlsCfg, err := adapter.MakeTLSConfig(bc.TLS.CA, bc.TLS.Cert, bc.TLS.Key)
		if err != nil {
			panic(err)
		}
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}

	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func (p topicPlan) configs(l layout) map[string]*string {
	cfg := map[string]*string{
		"cleanup.policy":      kadm.StringPtr(p.cleanup),
		"min.insync.replicas": kadm.StringPtr(l.minISR),
	}
	if p.retention > 0 {
		cfg["retention.ms"] = kadm.StringPtr(fmt.Sprint(p.retention.Milliseconds()))
	}
	return cfg
}

// makeTopics creates every planned topic. Existing topics are left as is.
func makeTopics(
	ctx context.Context, cl *kadm.Client, l layout, plans []topicPlan,
) error {
	var errs []error
	for _, p := range plans {
		res, err := cl.CreateTopic(ctx, l.partitions, l.replicationFactor, p.configs(l), p.name)
		switch {
		case errors.Is(err, kerr.TopicAlreadyExists), errors.Is(res.Err, kerr.TopicAlreadyExists):
			fmt.Printf("topic: %q already exists\n", p.name)
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
		case res.Err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", p.name, res.Err))
		default:
			fmt.Printf("topic: %q successfully created\n", p.name)
		}
	}
	return errors.Join(errs...)
}

// checkPartitions fails when the planned topics disagree on the
// partition count, which breaks the goka group table.
func checkPartitions(ctx context.Context, cl *kadm.Client, plans []topicPlan) error {
	names := make([]string, len(plans))
	for i, p := range plans {
		names[i] = p.name
	}

	details, err := cl.ListTopics(ctx, names...)
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(names))
	for _, name := range names {
		td, ok := details[name]
		if !ok || td.Err != nil {
			return fmt.Errorf("%s: not listed: %v", name, td.Err)
		}
		counts[name] = len(td.Partitions)
	}
	for _, name := range names[1:] {
		if counts[name] != counts[names[0]] {
			return fmt.Errorf("%s has %d partitions, %s has %d",
				name, counts[name], names[0], counts[names[0]])
		}
	}
	return nil
}

func printStart(plans []topicPlan) {
	fmt.Println("initializing topics...")
	for _, p := range plans {
		fmt.Printf("\t- %q (%s)\n", p.name, p.cleanup)
	}
	fmt.Println()
}

func toGroupTable(group string) string {
	return string(goka.GroupTable(goka.Group(group)))
}
