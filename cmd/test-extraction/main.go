// Command test-extraction sends a receipt file through the extraction
// pipeline and prints the resulting draft. Useful for verifying the OpenAI
// key and model before starting the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/extraction"
)

func main() {
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	model := flag.String("model", "gpt-4o", "Model to use for extraction")
	timeout := flag.Duration("timeout", 60*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: test-extraction [--key sk-...] [--model gpt-4o] <receipt file>\n")
		os.Exit(1)
	}

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	gotenv.Load()
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		os.Exit(1)
	}

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Println("=== Receipt Extraction Test ===")
	fmt.Printf("  File: %s (%d bytes)\n", path, len(data))
	fmt.Printf("  Model: %s\n", *model)
	fmt.Printf("  Timeout: %v\n", *timeout)
	fmt.Println()

	extractor := extraction.NewExtractor(*apiKey, *model, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	draft, err := extractor.Extract(ctx, path, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAILED after %v: %v\n", time.Since(start), err)
		os.Exit(1)
	}

	fmt.Printf("OK in %v\n\n", time.Since(start))
	out, _ := json.MarshalIndent(draft, "", "  ")
	fmt.Println(string(out))
}
