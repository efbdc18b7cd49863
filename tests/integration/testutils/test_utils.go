package testutils

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"
)

const (
	ServerBinary  = "./bin/consent-ledger-api"
	ServerPort    = "9000"
	TestServerURL = "http://localhost:" + ServerPort
)

var serverCmd *exec.Cmd

// BuildServer compiles the consent-ledger-api binary
func BuildServer() error {
	fmt.Println("Building consent ledger server...")
	cmd := exec.Command("go", "build",
		"-o", "tests/integration/bin/consent-ledger-api",
		"./cmd/server")
	cmd.Dir = "../.."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// SetupDatabase runs database migration scripts
func SetupDatabase() error {
	fmt.Println("Setting up test database...")
	// For now, we assume the database is already set up
	return nil
}

// StartServer starts the consent-ledger-api server in background
func StartServer() error {
	fmt.Println("Starting consent ledger server...")
	cmd := exec.Command(ServerBinary)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = append(os.Environ(),
		"CONSENT_LEDGER_SERVER_PORT="+ServerPort,
		"CONSENT_LEDGER_LOGGING_LEVEL=debug",
	)

	err := cmd.Start()
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	serverCmd = cmd
	return nil
}

// StopServer stops the background server
func StopServer() error {
	if serverCmd == nil || serverCmd.Process == nil {
		return nil
	}

	fmt.Println("Stopping consent ledger server...")
	return serverCmd.Process.Kill()
}

// WaitForServer polls the health endpoint until the server answers
func WaitForServer() error {
	client := &http.Client{Timeout: 2 * time.Second}

	for i := 0; i < 30; i++ {
		resp, err := client.Get(TestServerURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(1 * time.Second)
	}

	return fmt.Errorf("server did not become healthy in time")
}
