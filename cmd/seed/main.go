// Command seed boots marketcore against a fresh JSON-file persistence
// directory, creates a handful of demo users and markets with gofakeit
// data, runs a few trades, and resolves one market, exercising the full
// lifecycle end to end.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit"
	"github.com/shopspring/decimal"

	"marketcore/internal/api"
	"marketcore/internal/config"
	"marketcore/internal/engine"
	"marketcore/internal/models"
	"marketcore/internal/persistence"
	"marketcore/internal/telemetry"
)

func main() {
	dir := flag.String("dir", "./data", "persistence directory")
	userCount := flag.Int("users", 5, "number of demo users to create")
	marketCount := flag.Int("markets", 3, "number of demo markets to create")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("seed: loading config: %v", err)
	}

	logger, err := telemetry.New()
	if err != nil {
		log.Fatalf("seed: building logger: %v", err)
	}
	defer logger.Sync()

	backend := persistence.NewJSONBackend(*dir, logger)

	startingBalance, err := decimal.NewFromString(cfg.DefaultStartingBalance)
	if err != nil {
		log.Fatalf("seed: parsing starting balance: %v", err)
	}
	svc := api.NewWithStartingBalance(engine.RealClock{}, startingBalance)

	users := make([]string, 0, *userCount)
	for i := 0; i < *userCount; i++ {
		u, err := svc.CreateUser(gofakeit.Username())
		if err != nil {
			log.Fatalf("seed: creating user: %v", err)
		}
		users = append(users, u.ID)
	}

	markets := make([]string, 0, *marketCount)
	for i := 0; i < *marketCount; i++ {
		m, err := svc.CreateMarket("Will "+gofakeit.Name()+" win?", gofakeit.Sentence(10), cfg.DefaultLiquidity)
		if err != nil {
			log.Fatalf("seed: creating market: %v", err)
		}
		markets = append(markets, m.ID)
	}

	var trades []*models.Trade
	for i, userID := range users {
		marketID := markets[i%len(markets)]
		outcome := models.Yes
		if i%2 == 1 {
			outcome = models.No
		}
		trade, err := svc.Buy(marketID, userID, outcome, decimal.NewFromInt(20))
		if err != nil {
			log.Fatalf("seed: buying: %v", err)
		}
		trades = append(trades, trade)
	}

	if len(markets) > 0 {
		if err := svc.ResolveMarket(markets[0], models.Yes); err != nil {
			log.Fatalf("seed: resolving market: %v", err)
		}
	}

	if err := svc.SaveTo(backend, trades); err != nil {
		log.Fatalf("seed: saving: %v", err)
	}

	fmt.Printf("seeded %d users and %d markets into %s\n", len(users), len(markets), *dir)
}
