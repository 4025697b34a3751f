// Command genreadings generates synthetic probe readings for test fixtures
// and load testing. It classifies each reading with the default thresholds
// so the printed stats can seed test assertions, writes the raw readings as
// a JSON fixture, and optionally publishes them to a Kafka topic.
//
// Usage:
//
//	go run ./cmd/genreadings -count 200 -out data/mock/readings.json
//	go run ./cmd/genreadings -count 50 -brokers localhost:9092 -topic probe-readings
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	count := flag.Int("count", 100, "number of readings to generate")
	seed := flag.Int64("seed", 1, "random seed for reproducible fixtures")
	out := flag.String("out", "", "output path for the raw JSON fixture")
	brokers := flag.String("brokers", "", "comma-separated Kafka brokers to publish to")
	topic := flag.String("topic", "probe-readings", "Kafka topic for published readings")
	flag.Parse()

	if *out == "" && *brokers == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: at least one of -out, -brokers")
	}

	readings := generate(*count, rand.New(rand.NewSource(*seed)))
	printStats(readings)

	if *out != "" {
		if err := writeJSON(*out, readings); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote fixture: %s", *out)
	}

	if *brokers != "" {
		if err := publish(strings.Split(*brokers, ","), *topic, readings); err != nil {
			return fmt.Errorf("publishing readings: %w", err)
		}
		log.Printf("published %d readings to %s", len(readings), *topic)
	}
	return nil
}

// generate produces readings skewed toward healthy water, with a tail of
// out-of-band values and a sprinkle of absent and malformed fields so
// fixtures cover the degraded-parse path.
func generate(count int, rng *rand.Rand) []domain.RawReading {
	readings := make([]domain.RawReading, count)
	for i := range readings {
		r := domain.RawReading{
			PH:        formatValue(rng, 6.5+rng.Float64()*2.0, 4.0, 10.0),
			Turbidity: formatValue(rng, rng.Float64()*0.9, 0.0, 5.0),
			RFC:       formatValue(rng, 0.2+rng.Float64()*0.6, 0.0, 0.2),
			TDS:       formatValue(rng, 50+rng.Float64()*400, 0, 1200),
		}
		if rng.Float64() < 0.7 {
			r.Lat = strconv.FormatFloat(-90+rng.Float64()*180, 'f', 4, 64)
			r.Lon = strconv.FormatFloat(-180+rng.Float64()*360, 'f', 4, 64)
		}
		readings[i] = r
	}
	return readings
}

// formatValue returns the healthy value most of the time, an out-of-band
// value sometimes, and occasionally an absent or malformed field.
func formatValue(rng *rand.Rand, healthy, low, high float64) string {
	switch {
	case rng.Float64() < 0.05:
		return ""
	case rng.Float64() < 0.03:
		return "n/a"
	case rng.Float64() < 0.15:
		return strconv.FormatFloat(low+rng.Float64()*(high-low), 'f', 2, 64)
	default:
		return strconv.FormatFloat(healthy, 'f', 2, 64)
	}
}

func printStats(readings []domain.RawReading) {
	thresholds := domain.DefaultThresholds()
	counts := map[string]int{}
	for _, raw := range readings {
		severity, _ := domain.Classify(domain.ParseRawReading(raw), thresholds)
		counts[severity.String()]++
	}

	fmt.Println("=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(readings))
	fmt.Printf("By severity: OK=%d, MEDIUM=%d, HIGH=%d, CRITICAL=%d\n",
		counts["OK"], counts["MEDIUM"], counts["HIGH"], counts["CRITICAL"])
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func publish(brokers []string, topic string, readings []domain.RawReading) error {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	defer writer.Close() //nolint:errcheck // best-effort close

	msgs := make([]kafkago.Message, len(readings))
	for i, r := range readings {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal reading: %w", err)
		}
		msgs[i] = kafkago.Message{
			Key:   []byte(fmt.Sprintf("reading-%d", i)),
			Value: payload,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return writer.WriteMessages(ctx, msgs...)
}
