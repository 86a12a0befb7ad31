package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr    string
	DBDSN   string
	LogFile string
}

func Load() Config {
	_ = godotenv.Load()

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8081"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "library.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./library.log"
	}

	cfg := Config{Addr: addr, DBDSN: dsn, LogFile: logFile}
	log.Printf("[config] ADDR=%s DB_DSN=%s LOG_FILE=%s", cfg.Addr, cfg.DBDSN, cfg.LogFile)
	return cfg
}
