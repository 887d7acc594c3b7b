package main

import (
	"context"
	"flag"
	"log"
	"math/big"
	"path/filepath"

	"github.com/commonsfund/treasury/internal/config"
	"github.com/commonsfund/treasury/internal/services/db"
	"github.com/commonsfund/treasury/internal/services/window"
	"github.com/commonsfund/treasury/pkg/treasury"
	"github.com/commonsfund/treasury/pkg/vault"
	"github.com/ethereum/go-ethereum/common"
)

// bootstraps a treasury: seeds the config and grants the first admin
func main() {
	log.Default().Println("initializing treasury...")

	env := flag.String("env", "", "path to .env file")

	admin := flag.String("admin", "", "address of the first admin")

	threshold := flag.Int("threshold", 1, "number of approvals required to execute a proposal")

	timelockThreshold := flag.String("timelockthreshold", "", "amount above which proposals are timelocked (empty: disabled)")

	timelockDelay := flag.Int64("timelockdelay", 0, "timelock delay in seconds")

	dailyLimit := flag.String("dailylimit", "", "daily spending limit (empty: unlimited)")

	weeklyLimit := flag.String("weeklylimit", "", "weekly spending limit (empty: unlimited)")

	flag.Parse()

	if admin == nil || !common.IsHexAddress(*admin) {
		log.Fatal("a valid admin address is required")
	}

	ctx := context.Background()

	conf, err := config.New(ctx, *env)
	if err != nil {
		log.Fatal(err)
	}

	d, err := db.NewDB(conf.TreasuryName, conf.DataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	ws, err := window.NewStore(filepath.Join(conf.DataDir, "windows"))
	if err != nil {
		log.Fatal(err)
	}
	defer ws.Close()

	v := vault.New(d.SettingsDB, d.ProposalDB, d.PaymentDB, ws, d.EventDB)

	cfg := &treasury.Config{
		Threshold:     *threshold,
		TimelockDelay: *timelockDelay,
	}

	cfg.TimelockThreshold = parseAmount(*timelockThreshold)
	cfg.DailyLimit = parseAmount(*dailyLimit)
	cfg.WeeklyLimit = parseAmount(*weeklyLimit)

	err = v.Initialize(common.HexToAddress(*admin).Hex(), cfg)
	if err != nil {
		log.Fatal(err)
	}

	log.Default().Println("treasury initialized with admin: ", common.HexToAddress(*admin).Hex())
}

func parseAmount(s string) *big.Int {
	if s == "" {
		return nil
	}

	v, ok := big.NewInt(0).SetString(s, 10)
	if !ok {
		log.Fatalf("invalid amount: %s", s)
	}

	return v
}
