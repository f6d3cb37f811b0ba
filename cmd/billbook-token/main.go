package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"billbook/internal/auth"
	"billbook/internal/cli"
	applog "billbook/internal/log"
)

func main() {
	var (
		userID = flag.String("user", "", "user id the token acts for")
		email  = flag.String("email", "", "optional email claim")
		ttl    = flag.Duration("ttl", 0, "token lifetime; defaults to JWT_TTL")
		cookie = flag.Bool("cookie", false, "print a Set-Cookie line instead of the bare token")
	)
	flag.Parse()

	cfg, logger := cli.Bootstrap(applog.ComponentAuth)

	if strings.TrimSpace(*userID) == "" {
		fmt.Fprintln(os.Stderr, "usage: billbook-token -user <id> [-email addr] [-ttl 24h] [-cookie]")
		os.Exit(2)
	}
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required to mint tokens",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	lifetime := cfg.JWTTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, lifetime).Generate(auth.Session{
		UserID: strings.TrimSpace(*userID),
		Email:  strings.TrimSpace(*email),
	})
	if err != nil {
		logger.Error("Failed to mint token", applog.FieldError, err)
		os.Exit(1)
	}

	if *cookie {
		fmt.Printf("Set-Cookie: %s=%s; Path=/; HttpOnly; SameSite=Lax; Max-Age=%d\n",
			auth.CookieName, token, int(lifetime/time.Second))
		return
	}
	fmt.Println(token)
}
