package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"supply-console/internal/ai"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // Load .env if present

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	agent := ai.NewAgent(apiKey)
	ctx := context.Background()

	catalog := `Suppliers:
- id 1: Papelaria Central Ltda
- id 2: Embalagens Sul S.A.
Products:
- id 10: BOX-30 - Caixa de papelão 30x30 (default price 4.90 per un)
- id 11: TAPE-48 - Fita adesiva 48mm (default price 7.50 per un)
`

	request := "Order 40 boxes and 12 rolls of tape from Embalagens Sul, delivery next Friday."
	if len(os.Args) > 1 {
		request = os.Args[1]
	}

	fmt.Printf("INTERPRETING REQUEST: %s\n", request)
	resp, err := agent.InterpretPurchase(ctx, request, catalog)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if resp.IsClarificationRequest {
		fmt.Printf("\n--- CLARIFICATION ---\n%s\n", resp.Clarification.Message)
		return
	}

	p := resp.Proposal
	fmt.Printf("\n--- PROPOSAL ---\n")
	fmt.Printf("Supplier:   %d\n", p.SupplierID)
	fmt.Printf("Dates:      %s (expected %s)\n", p.PurchaseDate, p.ExpectedDeliveryDate)
	fmt.Printf("Confidence: %.2f\n", p.Confidence)
	fmt.Printf("Reasoning:  %s\n", p.Reasoning)

	fmt.Printf("\nLines:\n")
	for _, line := range p.Lines {
		fmt.Printf("- Product: %d, Quantity: %d, Unit price: %q\n", line.ProductID, line.Quantity, line.UnitPrice)
	}
}
