package trapper_test

import (
	"context"
	"fmt"

	"github.com/pior/trapper"
)

// Example demonstrating how to collect and use stats for CLI tools
func ExampleSender_Stats() {
	sender, err := trapper.New(trapper.Config{
		Server:    "zabbix.example.com",
		Hostname:  "web-01",
		Retries:   3,
		KeepAlive: true,
	})
	if err != nil {
		panic(err)
	}
	defer sender.Close()

	ctx := context.Background()
	_, _ = sender.Send(ctx, "app.requests", "42")
	_, _ = sender.BulkSend(ctx, trapper.Entry{Key: "app.errors", Value: "0"})

	stats := sender.Stats()

	fmt.Printf("Sends:\n")
	fmt.Printf("  Total: %d\n", stats.Sends)
	fmt.Printf("  Failed: %d\n", stats.SendFailures)
	fmt.Printf("  Measurements Accepted: %d\n", stats.Measurements)
	fmt.Printf("\n")
	fmt.Printf("Attempts:\n")
	fmt.Printf("  Total: %d\n", stats.Attempts)
	fmt.Printf("  Accepted: %d\n", stats.Accepted)
	fmt.Printf("  Rejected: %d\n", stats.Rejected)
	fmt.Printf("  Connect Errors: %d\n", stats.ConnectErrors)
	fmt.Printf("  I/O Errors: %d\n", stats.IOErrors)
}

// Example demonstrating how to collect pool stats
func ExampleSender_PoolStats() {
	sender, err := trapper.New(trapper.Config{
		Server:    "zabbix.example.com",
		Hostname:  "web-01",
		KeepAlive: true,
	})
	if err != nil {
		panic(err)
	}
	defer sender.Close()

	_, _ = sender.Send(context.Background(), "app.up", "1")

	poolStats := sender.PoolStats()
	fmt.Printf("Collector: %s\n", sender.Addr())
	fmt.Printf("  Open Connections: %d\n", poolStats.TotalConns)
	fmt.Printf("  Connections Created: %d\n", poolStats.CreatedConns)
	fmt.Printf("  Connections Destroyed: %d\n", poolStats.DestroyedConns)
	fmt.Printf("  Acquire Errors: %d\n", poolStats.AcquireErrors)
}
