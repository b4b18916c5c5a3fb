package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cloudx-io/blindauction/receipt"
	"github.com/cloudx-io/blindauction/validation"
)

func main() {
	// Define CLI flags
	var (
		receiptInput = flag.String("receipt", "", "Signed receipt in base64 (file path or inline)")
		eventsInput  = flag.String("events", "", "Observed event trail JSON (file path or inline JSON)")
		keysPath     = flag.String("keys", "", "Trusted keys JSON file (default: bundled trusted_keys.json)")
		winner       = flag.String("winner", "", "Expected winner (optional)")
		amount       = flag.String("amount", "", "Expected winning amount (optional)")
		outputFormat = flag.String("format", "text", "Output format: text or json")
		help         = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	// Show help
	if *help {
		showUsage()
		os.Exit(0)
	}

	if *receiptInput == "" || *eventsInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: --receipt and --events are required\n")
		os.Exit(1)
	}

	receiptB64, err := readInput(*receiptInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading receipt: %v\n", err)
		os.Exit(2)
	}

	eventsJSON, err := readInput(*eventsInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading event trail: %v\n", err)
		os.Exit(2)
	}

	var trail []receipt.EventRecord
	if err := json.Unmarshal([]byte(eventsJSON), &trail); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing event trail: %v\n", err)
		os.Exit(2)
	}

	path := *keysPath
	if path == "" {
		path = validation.DefaultTrustedKeysPath()
	}
	trustedKeys, err := validation.LoadTrustedKeysFromFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trusted keys: %v\n", err)
		os.Exit(2)
	}

	input := &validation.SettlementValidationInput{
		ReceiptCOSEBase64: strings.TrimSpace(receiptB64),
		TrustedKeys:       trustedKeys,
		EventTrail:        trail,
	}
	if *winner != "" {
		input.ExpectedWinner = winner
	}
	if *amount != "" {
		input.ExpectedAmount = amount
	}

	// Validate using library
	result, err := validation.ValidateSettlementReceipt(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	// Output results
	if *outputFormat == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}

	// Exit with appropriate code
	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Settlement Receipt Validator")
	fmt.Println()
	fmt.Println("Validates signed auction settlement receipts against an observed event trail.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  receipt-validator --receipt <base64> --events <json> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --receipt <base64>   Signed COSE receipt (file path or inline base64)")
	fmt.Println("  --events <json>      Observed event trail (file path or inline JSON)")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --keys <path>        Trusted keys JSON file (default: bundled trusted_keys.json)")
	fmt.Println("  --winner <name>      Expected winner")
	fmt.Println("  --amount <value>     Expected winning amount")
	fmt.Println("  --format <text|json> Output format (default: text)")
	fmt.Println("  --help               Show this help message")
	fmt.Println()
	fmt.Println("Input Format:")
	fmt.Println("  Each input flag accepts either a file path or an inline value.")
	fmt.Println()
	fmt.Println("Event Trail JSON:")
	fmt.Println("  [")
	fmt.Println("    {\"seq\": 0, \"kind\": \"highest_bid_increased\", \"actor\": \"alice\", \"amount\": \"10\", \"time\": 200},")
	fmt.Println("    {\"seq\": 1, \"kind\": \"auction_ended\", \"actor\": \"alice\", \"amount\": \"10\", \"time\": 300}")
	fmt.Println("  ]")
	fmt.Println()
	fmt.Println("Trusted Keys JSON:")
	fmt.Println("  {\"keys\": [{\"name\": \"settlement-signer\", \"public_key_pem\": \"-----BEGIN PUBLIC KEY-----...\"}]}")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Receipt valid")
	fmt.Println("  1 - Receipt invalid")
	fmt.Println("  2 - Validation could not be performed")
}

// readInput treats the argument as a file path when such a file exists,
// inline data otherwise.
func readInput(arg string) (string, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", arg, err)
		}
		return string(data), nil
	}
	return arg, nil
}

func outputJSON(result *validation.SettlementValidationResult) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(out))
}

func outputText(result *validation.SettlementValidationResult) {
	fmt.Println("Settlement Receipt Validation")
	fmt.Println("=============================")
	fmt.Printf("Signature valid:    %v", result.SignatureValid)
	if result.SignedBy != "" {
		fmt.Printf(" (signed by %q)", result.SignedBy)
	}
	fmt.Println()
	fmt.Printf("Event digest valid: %v\n", result.EventDigestValid)
	fmt.Printf("Winner valid:       %v\n", result.WinnerValid)
	fmt.Printf("Amount valid:       %v\n", result.AmountValid)
	fmt.Printf("Conservation valid: %v\n", result.ConservationValid)
	fmt.Println()
	fmt.Println("Details:")
	for _, d := range result.ValidationDetails {
		fmt.Printf("  - %s\n", d)
	}
	fmt.Println()
	if result.IsValid() {
		fmt.Println("RESULT: VALID")
	} else {
		fmt.Println("RESULT: INVALID")
	}
}
