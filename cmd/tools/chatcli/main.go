package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/zhouzirui/kyara/backend/internal/app"
	"github.com/zhouzirui/kyara/backend/internal/config"
	"github.com/zhouzirui/kyara/backend/internal/service/responder"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] .env not loaded, using system environment: %v", err)
	}

	user := flag.String("user", "", "user id, a random one is generated when empty")
	message := flag.String("message", "", "send a single message and exit")
	seed := flag.Int("seed", -1, "seed for the random source, negative keeps the configured one")
	quiet := flag.Bool("quiet", false, "suppress service logs")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *seed >= 0 {
		cfg.Responder.RandomSeed = seed
	}
	if *quiet {
		log.SetOutput(io.Discard)
	}

	ctx := context.Background()
	core, err := app.NewCore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize responder: %v", err)
	}

	userID := *user
	if userID == "" {
		userID = "cli-" + uuid.NewString()
	}

	if *message != "" {
		fmt.Println(core.Responder.OnMessage(ctx, userID, *message))
		return
	}

	if err := repl(ctx, core.Responder, userID, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("read input: %v", err)
	}
}

// repl answers one line at a time until EOF or "/exit".
func repl(ctx context.Context, r *responder.Responder, userID string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "user %s, type /exit to quit\n", userID)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit":
			return nil
		}

		fmt.Fprintln(out, r.OnMessage(ctx, userID, line))
	}
}
