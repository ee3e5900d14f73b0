// Command token mints a service token for calling the document API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"finance-doc-analyzer/internal/config"
	"finance-doc-analyzer/internal/pkg/jwtutil"
)

func main() {
	client := flag.String("client", "", "client name embedded in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to auth.jwt_expire_minute)")
	flag.Parse()

	if *client == "" {
		fmt.Fprintln(os.Stderr, "usage: token -client <name> [-ttl 24h]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.Auth.JWTExpireMinute) * time.Minute
	}
	token, err := jwtutil.GenerateToken(cfg.Auth.JWTSecret, lifetime, *client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
