package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"verichain/identity"
)

// enroll bootstraps wallet identities for the ledger gateway: first the
// admin, then any number of application users registered under it.
//
//	enroll -wallet ./wallet -msp Org1MSP -ca-cert ca.pem -ca-key ca-key.pem admin
//	enroll -wallet ./wallet -msp Org1MSP -ca-cert ca.pem -ca-key ca-key.pem user appUser
func main() {
	logger := log.New(os.Stdout, "[ENROLL] ", log.LstdFlags)

	_ = godotenv.Load()

	var (
		walletDir   = flag.String("wallet", envOr("WALLET_DIR", "./wallet"), "wallet directory")
		mspID       = flag.String("msp", envOr("MSP_ID", "Org1MSP"), "MSP id stamped into credentials")
		caCertPath  = flag.String("ca-cert", envOr("CA_CERT", "./config/ca/ca.pem"), "CA certificate PEM")
		caKeyPath   = flag.String("ca-key", envOr("CA_KEY", "./config/ca/ca-key.pem"), "CA private key PEM")
		adminAlias  = flag.String("admin", "admin", "admin identity alias")
		affiliation = flag.String("affiliation", "org1.department1", "affiliation OU for user identities")
	)
	flag.Parse()

	wallet, err := identity.NewWallet(*walletDir)
	if err != nil {
		logger.Fatalf("Failed to open wallet: %v", err)
	}
	enroller, err := identity.NewEnroller(wallet, *mspID, *caCertPath, *caKeyPath, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize enroller: %v", err)
	}

	switch flag.Arg(0) {
	case "admin", "":
		if err := enroller.EnrollAdmin(*adminAlias); err != nil {
			logger.Fatalf("Admin enrollment failed: %v", err)
		}
	case "user":
		alias := flag.Arg(1)
		if alias == "" {
			logger.Fatalf("Usage: enroll user <alias>")
		}
		if err := enroller.RegisterAndEnrollUser(*adminAlias, alias, *affiliation); err != nil {
			logger.Fatalf("User enrollment failed: %v", err)
		}
	default:
		logger.Fatalf("Unknown command %q (expected 'admin' or 'user')", flag.Arg(0))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
