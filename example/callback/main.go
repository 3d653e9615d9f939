package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/waehniger/mdpnp/pkg/simdevice"
)

// A single ECG on the realtime discipline with ±10 ms sawtooth drift, printed
// straight from the generator's tick without any queue in between.
func main() {
	cfg, err := simdevice.NewGeneratorConfig(72, 40, simdevice.Realtime, 10)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.DeviceID = "ecg-demo"

	consumer := simdevice.ConsumerFunc(func(b *simdevice.SampleBatch) error {
		lag := time.Now().UnixMilli() - b.Timestamp
		fmt.Printf("%s tick=%d points=%d lead_II[0]=%.3f hr=%.0f lag=%dms\n",
			time.UnixMilli(b.Timestamp).Format("15:04:05.000"),
			b.Tick, b.Len(), first(b.Channel("II")), b.Vitals["heart_rate"], lag)
		return nil
	})

	gen, err := simdevice.NewGenerator(simdevice.KindECG, cfg, consumer)
	if err != nil {
		log.Fatalf("generator: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := gen.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}
	<-ctx.Done()

	closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := gen.Close(closeCtx); err != nil {
		log.Fatalf("close: %v", err)
	}
}

func first(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}
