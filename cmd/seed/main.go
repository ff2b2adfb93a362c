// seed 写入演示数据：
//
//	go run ./cmd/seed library [-reset]
//	go run ./cmd/seed hospital [-reset] [-seed 42]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"Gin_postgres_redis_library_dashboard/config"
	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/hospital"
	"Gin_postgres_redis_library_dashboard/seed"

	"golang.org/x/crypto/bcrypt"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: seed <library|hospital> [-reset] [-seed N] [-cost N]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	target := os.Args[1]

	fs := flag.NewFlagSet(target, flag.ExitOnError)
	reset := fs.Bool("reset", false, "clear existing demo data first")
	seedVal := fs.Int64("seed", 0, "random seed (0 = time based)")
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	_ = fs.Parse(os.Args[2:])

	config.LoadEnv()
	g := db.ConnectDB()

	if *seedVal == 0 {
		*seedVal = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seedVal))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch target {
	case "library":
		lib, err := seed.SeedLibrary(ctx, g, seed.LibraryOptions{Rand: rng, Reset: *reset, BcryptCost: *cost})
		if err != nil {
			log.Fatalf("[seed] library: %v", err)
		}
		fmt.Printf("Seeded %d books, %d users and %d transactions.\n", len(lib.Books), len(lib.Users), len(lib.Transactions))
		fmt.Printf("All demo accounts use password %q, e.g. %s\n", seed.DefaultLibraryPassword, lib.Users[0].Email)
	case "hospital":
		ds, err := hospital.Seed(ctx, g, hospital.Options{Rand: rng, Reset: *reset, BcryptCost: *cost})
		if err != nil {
			log.Fatalf("[seed] hospital: %v", err)
		}
		hospital.PrintCredentials(os.Stdout, ds)
	default:
		usage()
	}
}
