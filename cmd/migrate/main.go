package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"schoolpay_backend/internals/configs"
	database "schoolpay_backend/internals/databases"
)

func main() {
	configs.LoadEnv()
	cfg := configs.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	log.Printf("🔌 Migrasi ke %s@%s:%s/%s", cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)

	m, err := migrate.New(
		configs.GetEnv("MIGRATIONS_PATH", "file://migrations"),
		database.DSN(cfg.DB),
	)
	if err != nil {
		log.Fatalf("init migrate: %v", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Printf("close migrate: %v, %v", srcErr, dbErr)
		}
	}()

	switch command {
	case "up":
		if err := m.Up(); errors.Is(err, migrate.ErrNoChange) {
			log.Println("tidak ada perubahan, skema sudah terbaru")
		} else if err != nil {
			log.Fatalf("migrate up: %v", err)
		} else {
			log.Println("✅ migrasi selesai")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Println("✅ satu migrasi di-rollback")

	case "goto":
		if len(os.Args) < 3 {
			log.Fatalf("versi wajib diisi: goto N")
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("versi tidak valid: %v", err)
		}
		if err := m.Migrate(uint(version)); errors.Is(err, migrate.ErrNoChange) {
			log.Printf("sudah di versi %d", version)
		} else if err != nil {
			log.Fatalf("migrate ke %d: %v", version, err)
		} else {
			log.Printf("✅ sekarang di versi %d", version)
		}

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Println("belum ada migrasi yang dijalankan")
		case err != nil:
			log.Fatalf("baca versi: %v", err)
		default:
			suffix := ""
			if dirty {
				suffix = " (dirty)"
			}
			log.Printf("versi sekarang: %d%s", version, suffix)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Pemakaian: go run ./cmd/migrate [command]")
	fmt.Println("  up     - jalankan semua migrasi yang tertunda")
	fmt.Println("  down   - rollback satu migrasi")
	fmt.Println("  goto N - migrasi ke versi N")
	fmt.Println("  status - tampilkan versi sekarang")
}
