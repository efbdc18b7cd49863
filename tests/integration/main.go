package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/medledger/consent-ledger-api/tests/integration/testutils"
)

func main() {
	err := testutils.BuildServer()
	if err != nil {
		fmt.Printf("Failed to build server binary: %v\n", err)
		os.Exit(1)
	}

	err = testutils.SetupDatabase()
	if err != nil {
		fmt.Printf("Failed to setup database: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Database initialized")

	err = testutils.StartServer()
	if err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		os.Exit(1)
	}
	defer testutils.StopServer()

	time.Sleep(2 * time.Second)
	err = testutils.WaitForServer()
	if err != nil {
		fmt.Printf("Server failed to start: %v\n", err)
		testutils.StopServer()
		os.Exit(1)
	}

	fmt.Println("\nRunning tests...")
	err = runTests()
	if err != nil {
		fmt.Printf("Tests failed: %v\n", err)
		testutils.StopServer()
		os.Exit(1)
	}

	fmt.Println("\n✓ All tests completed successfully!")
}

func runTests() error {
	packages := []string{
		"./access",
	}

	for _, pkg := range packages {
		fmt.Printf("\n--- Running %s ---\n", pkg)
		cmd := exec.Command("go", "test", "-v", "-count=1", pkg)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return err
		}
	}

	return nil
}
