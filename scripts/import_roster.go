package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/derbybench/lineup-server-go/internal/config"
	"github.com/derbybench/lineup-server-go/internal/roster"
	"github.com/derbybench/lineup-server-go/internal/storage"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	appendMode := flag.Bool("append", false, "append to the stored roster instead of replacing it")
	assumeYes := flag.Bool("yes", false, "replace a non-empty roster without asking")
	flag.Parse()

	ctx := context.Background()

	// Get CSV file path from args or use default
	csvPath := "data/roster.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	absPath, err := filepath.Abs(csvPath)
	if err != nil {
		log.Fatalf("Failed to get absolute path: %v", err)
	}

	fmt.Println("=== Roster Import ===")
	fmt.Printf("CSV file: %s\n", absPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	players, skipped, err := roster.ReadCSV(file)
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	for _, rowErr := range skipped {
		log.Printf("Warning: skipping %v", rowErr)
	}
	if len(players) == 0 {
		log.Fatal("CSV file has no valid player rows")
	}
	fmt.Printf("Parsed %d players (%d skipped)\n", len(players), len(skipped))

	fmt.Printf("Opening %s store...\n", cfg.Storage.Driver)
	store, err := storage.Open(ctx, cfg.Storage, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()
	fmt.Println("✓ Store ready")

	existing, err := store.LoadPlayers(ctx)
	if err != nil {
		log.Fatalf("Failed to read stored roster: %v", err)
	}

	switch {
	case *appendMode:
		players = append(existing.Players, players...)
	case len(existing.Players) > 0 && !*assumeYes:
		fmt.Printf("Warning: store already contains %d players\n", len(existing.Players))
		fmt.Print("Do you want to replace them? (yes/no): ")
		var response string
		fmt.Scanln(&response)
		if strings.ToLower(strings.TrimSpace(response)) != "yes" {
			fmt.Println("Import cancelled")
			return
		}
	}

	if err := store.SavePlayers(ctx, players); err != nil {
		log.Fatalf("Failed to save roster: %v", err)
	}
	fmt.Printf("✓ Stored %d players\n", len(players))
}
