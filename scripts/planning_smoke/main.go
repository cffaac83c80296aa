// Command planning_smoke exercises a running scheduler instance end to end:
// it requests a schedule for a window, reports placements, unscheduled units
// and conflicts, and optionally commits the proposal. Exit code 1 signals
// critical conflicts or an over-budget run, which makes it usable as a
// post-deploy gate.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type generateRequest struct {
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	DepartmentID int64  `json:"departmentId,omitempty"`
}

type scheduleEntry struct {
	ModuleName string    `json:"module_name"`
	RoomName   string    `json:"room_name"`
	StartTime  time.Time `json:"exam_time"`
}

type conflict struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

type unscheduledUnit struct {
	ModuleName string `json:"moduleName"`
	Reason     string `json:"reason"`
}

type scheduleResult struct {
	ProposalID     string            `json:"proposalId"`
	Entries        []scheduleEntry   `json:"entries"`
	Conflicts      []conflict        `json:"conflicts"`
	Unscheduled    []unscheduledUnit `json:"unscheduled"`
	ElapsedSeconds float64           `json:"elapsedSeconds"`
	BudgetExceeded bool              `json:"budgetExceeded"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base       string
		startDate  string
		endDate    string
		department int64
		commit     bool
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "Scheduler API base URL")
	flag.StringVar(&startDate, "start", "", "Planning window start (YYYY-MM-DD)")
	flag.StringVar(&endDate, "end", "", "Planning window end (YYYY-MM-DD)")
	flag.Int64Var(&department, "department", 0, "Optional priority department id")
	flag.BoolVar(&commit, "commit", false, "Save the generated proposal")
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "HTTP client timeout")
	flag.Parse()

	if startDate == "" || endDate == "" {
		log.Fatal("both -start and -end are required")
	}

	client := &http.Client{Timeout: timeout}

	result, err := generate(client, base, generateRequest{StartDate: startDate, EndDate: endDate, DepartmentID: department})
	if err != nil {
		log.Fatalf("generate failed: %v", err)
	}

	printReport(result)

	critical := 0
	for _, c := range result.Conflicts {
		if c.Severity == "CRITICAL" {
			critical++
		}
	}

	if commit {
		if len(result.Entries) == 0 {
			fmt.Println("Nothing to commit.")
		} else if err := save(client, base, result.ProposalID); err != nil {
			log.Fatalf("save failed: %v", err)
		}
	}

	if critical > 0 || result.BudgetExceeded {
		os.Exit(1)
	}
}

func generate(client *http.Client, base string, req generateRequest) (*scheduleResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	raw, err := post(client, base, "/schedule/generate", body)
	if err != nil {
		return nil, err
	}

	var result scheduleResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode schedule result: %w", err)
	}
	return &result, nil
}

func save(client *http.Client, base, proposalID string) error {
	body, err := json.Marshal(map[string]string{"proposalId": proposalID})
	if err != nil {
		return err
	}

	raw, err := post(client, base, "/schedule/save", body)
	if err != nil {
		return err
	}

	var resp struct {
		Saved   bool   `json:"saved"`
		Count   int    `json:"count"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode save response: %w", err)
	}
	fmt.Printf("Commit: %s\n", resp.Message)
	return nil
}

func post(client *http.Client, base, path string, body []byte) (json.RawMessage, error) {
	url := strings.TrimRight(base, "/") + path
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope (status %d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%s: %s (status %d)", env.Error.Code, env.Error.Message, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return env.Data, nil
}

func printReport(result *scheduleResult) {
	fmt.Println("Planning Smoke Report")
	fmt.Println("=====================")
	fmt.Printf("Proposal: %s\n", result.ProposalID)
	fmt.Printf("Scheduled: %d | Unscheduled: %d | Conflicts: %d\n", len(result.Entries), len(result.Unscheduled), len(result.Conflicts))
	fmt.Printf("Elapsed: %.2fs | Budget exceeded: %t\n", result.ElapsedSeconds, result.BudgetExceeded)

	for _, e := range result.Entries {
		fmt.Printf("  [OK] %s in %s @ %s\n", e.ModuleName, e.RoomName, e.StartTime.Format("2006-01-02 15:04"))
	}
	for _, u := range result.Unscheduled {
		fmt.Printf("  [SKIP] %s: %s\n", u.ModuleName, u.Reason)
	}
	for _, c := range result.Conflicts {
		fmt.Printf("  [%s] %s: %s\n", c.Severity, c.Kind, c.Detail)
	}
}
