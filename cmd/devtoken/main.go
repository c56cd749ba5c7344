// Command devtoken prints a bearer token for local testing of the cart and
// order routes.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/config"
	"github.com/wichananm65/pet-shop-checkout/internal/interface/http/middleware"
)

func main() {
	userID := flag.Int("user", 1, "user id to put in the user_id claim")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "user id must be positive")
		os.Exit(1)
	}

	token, err := middleware.SignToken(cfg.JWTSecret, *userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
