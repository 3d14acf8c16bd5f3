package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"safeparking/internal/ai"
	"safeparking/internal/modules/request"
)

func main() {
	_ = godotenv.Load()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	provider, err := ai.NewGeminiProvider(ctx, apiKey, "gemini-2.0-flash", "gemini-2.0-flash")
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}
	defer provider.Close()

	utterance := "시청 근처에 무료 주차장 3개만 찾아줘"
	if len(os.Args) > 1 {
		utterance = strings.Join(os.Args[1:], " ")
	}
	fmt.Printf("User: %s\n", utterance)

	raw, err := provider.Classify(ctx, utterance, "")
	if err != nil {
		log.Fatalf("Error classifying: %v", err)
	}

	pretty, _ := json.MarshalIndent(raw, "", "  ")
	fmt.Printf("Raw classification:\n%s\n", pretty)

	validator := request.NewValidator(5, 3, 10)
	req, corrections := validator.Validate(raw, 0)
	fmt.Printf("Intent: %s\n", req.Intent)
	if req.Region != "" {
		fmt.Printf("Region: %s\n", req.Region)
	}
	if req.Destination != "" {
		fmt.Printf("Destination: %s\n", req.Destination)
	}
	for _, c := range corrections {
		fmt.Printf("Corrected: %s\n", c)
	}
}
