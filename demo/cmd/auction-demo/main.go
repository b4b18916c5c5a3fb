package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/cloudx-io/blindauction/demo"
)

func main() {
	orchestrator, err := demo.NewOrchestrator(demo.DefaultConfig())
	if err != nil {
		log.Printf("ERROR: Failed to set up demo: %v", err)
		os.Exit(1)
	}

	r, err := orchestrator.Run()
	if err != nil {
		log.Printf("ERROR: Demo run failed: %v", err)
		os.Exit(1)
	}

	owner, err := orchestrator.DeedOwner()
	if err != nil {
		log.Printf("ERROR: Failed to read deed owner: %v", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		log.Printf("ERROR: Failed to encode receipt: %v", err)
		os.Exit(1)
	}

	fmt.Println("Settlement receipt:")
	fmt.Println(string(out))
	fmt.Printf("Deed now owned by: %s\n", owner)
}
