// Package main is a development utility that signs a bearer token for a local
// server running with auth.mode=jwt. It uses the same DEA_JWT_SECRET the server
// verifies with, so the printed header can be pasted straight into curl or set as
// DEA_TEST_TOKEN for cmd/test-api. Never point it at a deployed stage.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/digital-evidence-archive/dea-backend/internal/auth"
)

func main() {
	username := flag.String("user", "dev.caseworker", "username placed in the token")
	role := flag.String("role", "CaseWorker", "role name, one of the configured roles")
	first := flag.String("first", "Dev", "given name")
	last := flag.String("last", "User", "family name")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	// A generated fallback secret would sign tokens the server cannot verify
	if os.Getenv("DEA_JWT_SECRET") == "" {
		log.Fatal("DEA_JWT_SECRET must be set to the server's secret")
	}
	if err := auth.ValidateJWTSecret(); err != nil {
		log.Fatalf("JWT secret: %v", err)
	}

	token, err := auth.GenerateJWT(&auth.Identity{
		TokenID:   "dev-" + *username,
		Username:  *username,
		FirstName: *first,
		LastName:  *last,
		Role:      *role,
	}, *ttl)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("==========================================================")
	fmt.Printf("Token for %s (%s), valid %s\n", *username, *role, *ttl)
	fmt.Println("==========================================================")
	fmt.Printf("Authorization: Bearer %s\n", token)
	fmt.Println("==========================================================")
}
