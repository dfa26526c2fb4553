// Command issue-token mints a development JWT for a user id, signed with the
// same HS256 secret the server validates.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/etepro/etepro-backend/internal/config"
	"github.com/etepro/etepro-backend/internal/logger"
	"github.com/etepro/etepro-backend/internal/service"
	"github.com/google/uuid"
	"golang.org/x/term"
)

func main() {
	var (
		userFlag  string
		emailFlag string
	)
	flag.StringVar(&userFlag, "user", "", "User id (uuid); a new one is generated when empty")
	flag.StringVar(&emailFlag, "email", "aluno@etepro.dev", "Email claim")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, "pretty", "")

	// ─── Secret ────────────────────────────────────────────────────────
	// Prompt when JWT_SECRET is not set so secrets stay out of shell history.
	if os.Getenv("JWT_SECRET") == "" && term.IsTerminal(int(syscall.Stdin)) {
		fmt.Fprint(os.Stderr, "JWT secret: ")
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read secret")
		}
		if s := strings.TrimSpace(string(secret)); s != "" {
			cfg.JWTSecret = s
		}
	}

	// ─── User ──────────────────────────────────────────────────────────
	userID := uuid.New()
	if userFlag != "" {
		parsed, err := uuid.Parse(userFlag)
		if err != nil || parsed == uuid.Nil {
			log.Fatal().Str("user", userFlag).Msg("Invalid user id")
		}
		userID = parsed
	}

	token, err := service.NewAuthService(cfg).GenerateToken(userID, emailFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}

	log.Info().
		Str("user_id", userID.String()).
		Dur("expires_in", cfg.JWTExpiry).
		Msg("Token issued")
	fmt.Println(token)
}
