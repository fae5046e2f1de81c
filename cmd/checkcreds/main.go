// Command checkcreds verifies the X credentials and, when X_EXPECTED_USERNAME is set, that
// they belong to the expected account. Exit status 2 means the account does not match.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"yt2x/config"
	"yt2x/identity"
	"yt2x/xapi"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.X.AccessToken == "" && cfg.X.RefreshToken == "" {
		fmt.Fprintln(os.Stderr, "Missing X_ACCESS_TOKEN or X_REFRESH_TOKEN in .env")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	username, err := identity.Check(ctx, xapi.NewClient(ctx, cfg.X), cfg.Publish.ExpectedUsername)
	switch {
	case errors.Is(err, identity.ErrIdentityMismatch):
		fmt.Fprintf(os.Stderr, "Refusing: %v\n", err)
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "FAIL %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK as @%s\n", username)
}
