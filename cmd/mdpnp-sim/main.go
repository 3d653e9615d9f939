package main

import (
	"bufio"
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/waehniger/mdpnp/pkg/simdevice"
)

//go:embed assets/banner_color.ansi
var bannerColor string

//go:embed assets/banner_plain.txt
var bannerPlain string

func main() {
	fmt.Fprint(os.Stderr, selectBanner())
	fmt.Fprintln(os.Stderr)
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("mdpnp-sim %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to simulator configuration file")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	// batches go to stdout by default, so logs stay on stderr
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	flow, err := simdevice.Conf(*cfgPath, simdevice.WithFlowOptions(simdevice.WithLogger(logger)))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return flow.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := simdevice.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good ✅ (%d devices, %s executor)\n", *cfgPath, len(cfg.Devices), cfg.Executor)
	for _, d := range cfg.Devices {
		fmt.Printf("  %-16s %-8s hr=%g ms=%d time_base=%s drift=%gms/%s\n",
			d.Name, d.Kind, d.HeartRate, d.MsPerSample, d.TimeBase, d.Drift.Magnitude, d.Drift.Mode)
	}
	return nil
}

func selectBanner() string {
	if os.Getenv("NO_COLOR") != "" {
		return bannerPlain
	}
	return bannerColor
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

var statsTargets = map[string]struct{}{
	"mdpnp_batches_delivered_total": {},
	"mdpnp_consumer_errors_total":   {},
	"mdpnp_batches_dropped_total":   {},
	"mdpnp_drift_clamped_total":     {},
	"mdpnp_queue_length":            {},
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	totals, connected, err := parseMetrics(bufio.NewScanner(resp.Body))
	if err != nil {
		return err
	}

	fmt.Printf("[%s] connected=%d delivered=%.0f errors=%.0f dropped=%.0f clamped=%.0f queue=%.0f\n",
		time.Now().Format(time.RFC3339),
		connected,
		totals["mdpnp_batches_delivered_total"],
		totals["mdpnp_consumer_errors_total"],
		totals["mdpnp_batches_dropped_total"],
		totals["mdpnp_drift_clamped_total"],
		totals["mdpnp_queue_length"],
	)
	return nil
}

// parseMetrics sums the target series across device labels and counts
// connected generators.
func parseMetrics(scanner *bufio.Scanner) (map[string]float64, int, error) {
	totals := make(map[string]float64, len(statsTargets))
	connected := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := splitSample(line)
		if !ok {
			continue
		}
		if name == "mdpnp_generator_connected" && value == 1 {
			connected++
			continue
		}
		if _, ok := statsTargets[name]; ok {
			totals[name] += value
		}
	}
	return totals, connected, scanner.Err()
}

func splitSample(line string) (string, float64, bool) {
	end := strings.IndexAny(line, "{ ")
	if end <= 0 {
		return "", 0, false
	}
	fields := strings.Fields(line)
	v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return "", 0, false
	}
	return line[:end], v, true
}

func printUsage() {
	fmt.Printf(`mdpnp-sim: simulated physiological devices

Usage:
  mdpnp-sim <command> [flags]

Commands:
  run        Start every configured device and stream batches to the output
  validate   Load and validate a config file without starting the runtime
  stats      Poll the Prometheus metrics endpoint and print live counters

Kinds: %s

Examples:
  mdpnp-sim run -config ./data/config.yaml
  mdpnp-sim validate -config ./data/config.yaml
  mdpnp-sim stats -url http://localhost:9100/metrics -interval 1s
`, strings.Join(simdevice.Kinds(), ", "))
}
