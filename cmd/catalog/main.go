// Package main is a command-line browser for the reconciled card catalog.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog/pokemontcg"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog/setid"
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog/tcgdex"
	"github.com/ramonehamilton/PTCG-Inventory/internal/config"
)

var (
	configPath = flag.String("config", "", "Path to config.toml (default: ~/.ptcg-inventory/config.toml)")
	lang       = flag.String("lang", "", "Catalog language (default: from config)")
	asJSON     = flag.Bool("json", false, "Print JSON instead of a table")
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: catalog [-lang xx] [-json] <command> [args]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  sets                       List the reconciled sets")
	fmt.Fprintln(os.Stderr, "  cards <set-id>             List the cards of a set")
	fmt.Fprintln(os.Stderr, "  card <set-id> <local-id>   Show one card")
	fmt.Fprintln(os.Stderr, "  normalize <set-id>...      Print canonical set identifiers")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	// Needs no network or config.
	if args[0] == "normalize" {
		for _, id := range args[1:] {
			fmt.Printf("%s\t%s\n", id, setid.Normalize(id))
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	language := cfg.Catalog.Language
	if *lang != "" {
		language = *lang
	}

	service, err := newService(cfg)
	if err != nil {
		log.Fatalf("Failed to create catalog service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch args[0] {
	case "sets":
		sets, err := service.GetAllSets(ctx, language)
		if err != nil {
			log.Fatalf("Failed to fetch sets: %v", err)
		}
		if len(sets) == 0 {
			log.Fatal("No sets returned, one of the catalogs may be unavailable")
		}
		printSets(sets)

	case "cards":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		cards, err := service.GetSetCards(ctx, args[1], language)
		if err != nil {
			log.Fatalf("Failed to fetch cards: %v", err)
		}
		printCards(cards)

	case "card":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		card, err := service.GetCardDetails(ctx, args[1], args[2], language)
		if err != nil {
			log.Fatalf("Failed to fetch card: %v", err)
		}
		if card == nil {
			log.Fatalf("Card %s/%s (%s) not found", args[1], args[2], language)
		}
		printJSON(card)

	default:
		usage()
		os.Exit(2)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.LoadFrom(*configPath)
	}
	return config.Load()
}

func newService(cfg *config.Config) (*catalog.Service, error) {
	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		return nil, err
	}

	english := pokemontcg.NewClient(pokemontcg.Options{
		BaseURL: cfg.Catalog.PokemonTCGBaseURL,
		APIKey:  cfg.Catalog.PokemonTCGAPIKey,
		Timeout: timeout,
	})
	localized := tcgdex.NewClient(tcgdex.Options{
		BaseURL: cfg.Catalog.TCGdexBaseURL,
		Timeout: timeout,
	})

	return catalog.NewService(english, localized, catalog.ServiceOptions{}), nil
}

func printSets(sets []catalog.Set) {
	if *asJSON {
		printJSON(sets)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCANONICAL\tNAME\tENGLISH NAME\tCARDS\tRELEASED")
	for _, s := range sets {
		released := "-"
		if s.ReleaseDate != nil {
			released = *s.ReleaseDate
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.CanonicalID, s.Name, s.NameEN, s.CardCountTotal, released)
	}
	_ = w.Flush()
}

func printCards(cards []catalog.CardBrief) {
	if *asJSON {
		printJSON(cards)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNUMBER\tNAME")
	for _, c := range cards {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.LocalID, c.Name)
	}
	_ = w.Flush()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
