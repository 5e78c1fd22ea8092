// Package main is the entry point for the relay CLI.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/relabs-ai/relay/app"
	"github.com/relabs-ai/relay/config"
	"github.com/relabs-ai/relay/model"
)

// version is set via ldflags.
var version = "dev"

func main() {
	// .env supplies provider API keys in local development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "serve":
		err = serve(args)
	case "chat":
		err = chat(args)
	case "ingest":
		err = ingest(args)
	case "version":
		fmt.Println("relay", version)
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: relay <command> [flags]

commands:
  serve    start the HTTP server
  chat     interactive REPL against the meta agent
  ingest   load a document into the vector store and run a test query
  version  print the version`)
}

func newApp(args []string, fs *flag.FlagSet) (*app.App, error) {
	configPath := fs.String("config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	a, err := newApp(args, fs)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Warm(ctx); err != nil {
		return fmt.Errorf("warm agents: %w", err)
	}
	a.Logger.Info("agents warmed", "agents", a.Registry.Names())

	srv := &http.Server{
		Addr:    a.Config.Server.Addr(),
		Handler: a.Server.Router(),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	a.Logger.Info("server listening", "addr", srv.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Logger.Info("shutting down")
		return srv.Shutdown(context.Background())
	}
}

// chat is a line-oriented REPL: errors are printed and the loop continues,
// and each turn feeds the previous transcript back in.
func chat(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	agentName := fs.String("agent", "meta", "agent to talk to")
	a, err := newApp(args, fs)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	var messages []model.Message

	for {
		fmt.Print("User: ")
		if !scanner.Scan() {
			fmt.Println("\nExiting.")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			return nil
		}

		messages = append(messages, model.Message{Role: model.RoleUser, Content: line})

		result, err := a.Runner.Run(ctx, *agentName, messages)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}

		fmt.Println("Agent:", result.FinalOutput)
		messages = result.Messages
	}
}

func ingest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	query := fs.String("query", "", "optional test query to run after loading")
	topK := fs.Int("top-k", 3, "number of passages the test query returns")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: relay ingest [flags] <document>")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	n, err := a.Retrieval.IngestFile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("ingested %d chunks from %s\n", n, fs.Arg(0))

	if *query == "" {
		return nil
	}

	results, err := a.Retrieval.Search(ctx, *query, *topK)
	if err != nil {
		return err
	}
	for i, r := range results {
		fmt.Printf("[%d] score=%.3f source=%s\n%s\n\n", i+1, r.Score, r.Chunk.DocumentID, r.Chunk.Text)
	}
	return nil
}
