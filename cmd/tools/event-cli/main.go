package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/annel0/ufo-survivor/internal/eventbus"
	"github.com/annel0/ufo-survivor/internal/world"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "15:04:05.000"
)

func main() {
	var (
		natsURL    = flag.String("url", defaultNatsURL, "NATS server URL")
		stream     = flag.String("stream", "UFO_EVENTS", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats, types")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		runID      = flag.String("run", "", "Run ID filter")
		limit      = flag.Int("limit", 0, "Stop after N events (0 = follow)")
	)
	flag.Parse()

	switch *command {
	case "types":
		showTypes()
		return
	case "tail", "stats":
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, types")
		os.Exit(1)
	}

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 0)
	if err != nil {
		log.Fatalf("❌ Failed to connect to JetStream: %v", err)
	}
	defer bus.Close()

	switch *command {
	case "tail":
		if err := tailEvents(bus, &TailOptions{
			EventTypes: parseStringList(*eventTypes),
			RunID:      *runID,
			Limit:      *limit,
		}); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}
	case "stats":
		if err := showStats(bus, *stream); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}
	}
}

type TailOptions struct {
	EventTypes []string
	RunID      string
	Limit      int
}

// tailEvents выводит новые события до Ctrl+C или лимита
func tailEvents(bus *eventbus.JetStreamBus, opts *TailOptions) error {
	fmt.Printf("🎬 Tailing events (types: %v, run: %q, limit: %d)\n", opts.EventTypes, opts.RunID, opts.Limit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var count atomic.Int64
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: opts.EventTypes}, func(_ context.Context, ev *eventbus.Envelope) {
		if opts.RunID != "" && ev.CorrelationID != opts.RunID {
			return
		}
		printEvent(ev)
		if n := count.Add(1); opts.Limit > 0 && n >= int64(opts.Limit) {
			stop()
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	fmt.Printf("\n📊 Total events: %d\n", count.Load())
	return nil
}

// showStats выводит состояние стрима
func showStats(bus *eventbus.JetStreamBus, stream string) error {
	msgs, bytes, err := bus.StreamState()
	if err != nil {
		return err
	}
	fmt.Println("📊 Stream statistics")
	fmt.Printf("Stream: %s\n", stream)
	fmt.Printf("Messages: %d\n", msgs)
	fmt.Printf("Bytes: %d\n", bytes)
	return nil
}

// showTypes выводит типы событий забега и их subject-ы
func showTypes() {
	fmt.Println("📋 Available event types")
	for t := world.EventTypeEnemyKilled; t <= world.EventTypeGameOver; t++ {
		fmt.Printf("  %-14s %s (priority %d)\n", t, eventbus.Subject(t.String()), eventbus.RunEventPriority(t))
	}
}

// printEvent выводит событие в читаемом формате
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s [%s] %s\n",
		ev.Timestamp.Format(timeFormat),
		ev.CorrelationID,
		ev.EventType,
		ev.ID)

	event, err := eventbus.RunEvent(ev)
	if err != nil {
		fmt.Printf("  ⚠️ %v\n", err)
		return
	}

	switch event.Type {
	case world.EventTypeEnemyKilled:
		fmt.Printf("  Enemy: %s Score: +%d at (%.0f,%.0f)\n", event.Kind, event.Value, event.Position.X, event.Position.Y)
	case world.EventTypePlayerHit:
		fmt.Printf("  Damage: %d Shielded: %v\n", event.Value, event.Shielded)
	case world.EventTypeItemPicked:
		fmt.Printf("  Item: %s\n", event.Kind)
	case world.EventTypeGemCollected:
		fmt.Printf("  Experience: +%d\n", event.Value)
	case world.EventTypeLevelUp:
		fmt.Printf("  Level: %d\n", event.Value)
	case world.EventTypeGameOver:
		fmt.Printf("  Final score: %d\n", event.Value)
	}
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
