package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"customer-onboarding/config"
	"customer-onboarding/shared"
	"customer-onboarding/workflows"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadTemporalConfig()
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}

	inputPath := "starter/sample-input.json"
	if len(os.Args) > 1 {
		inputPath = os.Args[1]
	}
	in, err := readInput(inputPath)
	if err != nil {
		log.Fatalf("Unable to read onboarding input: %v", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	// The login email acts as an idempotency key: while a run for this email
	// is open, starting again returns the existing run instead of creating a
	// second account.
	workflowID := fmt.Sprintf("onboard-customer-%s", strings.ToLower(in.Login.Email))
	reader := bufio.NewReader(os.Stdin)

	fmt.Println()
	fmt.Println("🚀 Starting onboarding workflow for", in.Login.Email)

	we, err := c.ExecuteWorkflow(
		context.Background(),
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: shared.OnboardingWorkflowTaskQueue,
		},
		workflows.OnboardingWorkflow,
		in,
	)
	if err != nil {
		log.Fatalf("Unable to start workflow: %v", err)
	}
	fmt.Printf("   WorkflowID: %s\n", we.GetID())
	fmt.Printf("   RunID:      %s\n", we.GetRunID())

	for {
		fmt.Println()
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println("  Customer Onboarding CLI")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println()
		fmt.Println("  [1] Wait for the result")
		fmt.Println("  [2] Query progress")
		fmt.Println("  [3] Exit (workflow continues running)")
		fmt.Println()
		fmt.Print("Choose: ")

		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		switch choice {
		case "1":
			handleWaitForResult(we)
			return

		case "2":
			handleQueryProgress(c, workflowID)

		case "3":
			fmt.Println()
			fmt.Println("👋 Exiting CLI. The workflow continues running in Temporal.")
			fmt.Println("   Re-run this program to reconnect, or view at http://localhost:8233")
			return

		default:
			fmt.Println("❌ Invalid choice. Please enter 1, 2, or 3.")
		}
	}
}

func readInput(path string) (shared.OnboardingInput, error) {
	var in shared.OnboardingInput
	raw, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("decode %s: %w", path, err)
	}
	return in, nil
}

func handleWaitForResult(we client.WorkflowRun) {
	fmt.Println()
	fmt.Println("⏳ Waiting for workflow result...")

	var result shared.OnboardingResult
	err := we.Get(context.Background(), &result)
	if err != nil {
		printFailure(err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("🏁 Customer %s onboarded (role %s)\n", result.CustomerID, result.RoleID)
	fmt.Printf("   Registration linked:  %t\n", result.RegistrationLinked)
	fmt.Printf("   Profile saved:        %t\n", result.CompanyProfileSaved)
	fmt.Printf("   Documents uploaded:   %d\n", len(result.UploadedDocuments))
	fmt.Printf("   Status updated:       %t\n", result.RegistrationStatusUpdated)
}

func printFailure(err error) {
	var appErr *temporal.ApplicationError
	var oe shared.OnboardingError
	if !errors.As(err, &appErr) || appErr.Type() != shared.ErrTypeOnboardingFailed || appErr.Details(&oe) != nil {
		fmt.Printf("❌ Workflow failed: %v\n", err)
		return
	}

	fmt.Printf("❌ %s\n", oe.Error())
	if !oe.AccountCreated() {
		fmt.Println("   No account was created. It is safe to start over.")
		return
	}
	fmt.Printf("   Account %s exists. Completed before the failure:\n", oe.Partial.CustomerID)
	fmt.Printf("     registration linked: %t, profile saved: %t, documents: %d\n",
		oe.Partial.RegistrationLinked, oe.Partial.CompanyProfileSaved, len(oe.Partial.UploadedDocuments))
}

func handleQueryProgress(c client.Client, workflowID string) {
	resp, err := c.QueryWorkflow(
		context.Background(),
		workflowID,
		"",
		shared.QueryOnboardingProgress,
	)
	if err != nil {
		fmt.Printf("❌ Query failed: %v\n", err)
		return
	}

	var progress shared.OnboardingProgress
	if err := resp.Get(&progress); err != nil {
		fmt.Printf("❌ Failed to decode progress: %v\n", err)
		return
	}

	fmt.Printf("\n📋 %s (step %s, %d documents uploaded)\n",
		progress.Message, progress.Step, len(progress.Partial.UploadedDocuments))
}
