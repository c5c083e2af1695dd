// Command issue-token mints an access token for a company or vendor account.
// Account management lives outside this service; the token is for local use
// and for integrating the upstream identity provider.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/nekogravitycat/cab-booking-backend/internal/auth"
	"github.com/nekogravitycat/cab-booking-backend/internal/config"
)

func main() {
	accountID := flag.String("account", "", "company or vendor id (uuid)")
	role := flag.String("role", "", "company or vendor")
	flag.Parse()

	if _, err := uuid.Parse(*accountID); err != nil {
		fmt.Fprintln(os.Stderr, "-account must be a uuid")
		flag.Usage()
		os.Exit(2)
	}
	r := auth.Role(*role)
	if !r.Valid() {
		fmt.Fprintln(os.Stderr, "-role must be company or vendor")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL).GenerateAccessToken(*accountID, r)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
