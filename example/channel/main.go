package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/waehniger/mdpnp"
)

func main() {
	flow, err := mdpnp.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, batches, closeBatches := mdpnp.NewChannelSink("fanout", 32)
	defer closeBatches()

	go fanoutWorker("monitor", batches)

	if err := flow.Run(ctx, mdpnp.OutputSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, batches <-chan []*mdpnp.SampleBatch) {
	for group := range batches {
		for _, b := range group {
			fmt.Printf("[%s] %s %-8s tick=%d ts=%s vitals=%v\n",
				name, b.DeviceID, b.Kind, b.Tick,
				time.UnixMilli(b.Timestamp).Format(time.RFC3339Nano), b.Vitals)
		}
	}
}
