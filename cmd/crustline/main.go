package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"crustline/internal/cache"
	"crustline/internal/catalog"
	"crustline/internal/config"
	"crustline/internal/content"
	"crustline/internal/newsletter"
	"crustline/internal/telemetry"
)

func main() {
	var serve bool
	var addr string
	var category int
	var page int
	var subscribers bool
	var help bool

	flag.BoolVar(&serve, "serve", false, "Run HTTP server mode")
	flag.StringVar(&addr, "addr", ":8080", "Address to bind in server mode")
	flag.IntVar(&category, "category", 0, "Category id to print (0 for all)")
	flag.IntVar(&category, "c", 0, "Category id to print (short form)")
	flag.IntVar(&page, "page", 1, "Catalog page to print")
	flag.IntVar(&page, "p", 1, "Catalog page to print (short form)")
	flag.BoolVar(&subscribers, "subscribers", false, "List newsletter subscribers")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message")
	flag.Parse()

	if help {
		showHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to set up telemetry: %v", err)
	}

	err = run(ctx, cfg, serve, addr, category, page, subscribers)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := shutdownTelemetry(flushCtx); shutdownErr != nil {
		fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", shutdownErr)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, serve bool, addr string, category, page int, subscribers bool) error {
	if serve {
		return runServer(cfg, addr)
	}

	if subscribers {
		store, err := cache.MakeCache(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create cache: %w", err)
		}
		emails, err := newsletter.NewStorage(store).List(ctx)
		if err != nil {
			return err
		}
		for _, email := range emails {
			fmt.Println(email)
		}
		return nil
	}

	source, err := content.NewSource(cfg)
	if err != nil {
		return fmt.Errorf("failed to create content source: %w", err)
	}
	state := catalog.ViewState{Page: page}
	if category > 0 {
		state = state.SelectCategory(&category).WithPage(page)
	}
	return printCatalog(ctx, os.Stdout, source, state, cfg.Catalog.PageSize)
}

func showHelp() {
	fmt.Println("Crustline - pizza storefront")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  crustline -serve [-addr :8080]")
	fmt.Println("  crustline [-category <id>] [-page <n>]")
	fmt.Println("  crustline -subscribers")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -serve            Run the storefront web server")
	fmt.Println("  -addr             Address to bind in server mode")
	fmt.Println("  -category, -c     Category id to print (default all)")
	fmt.Println("  -page, -p         Catalog page to print (default 1)")
	fmt.Println("  -subscribers      List newsletter subscribers")
	fmt.Println("  -help, -h         Show this help message")
}
