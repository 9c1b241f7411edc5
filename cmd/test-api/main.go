// Package main is a smoke-test utility that verifies a deployed API is reachable.
// It requests /health and /version and, when DEA_TEST_TOKEN is set, lists the
// caller's cases. It prints each status code and response body, making it useful
// for quick post-deployment checks without needing external tooling like curl.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	baseURL := strings.TrimRight(os.Getenv("DEA_BASE_URL"), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	client := &http.Client{Timeout: 15 * time.Second}

	failed := false
	for _, path := range []string{"/health", "/version", "/cases/my-cases"} {
		req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if path == "/cases/my-cases" {
			token := os.Getenv("DEA_TEST_TOKEN")
			if token == "" {
				continue
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := client.Do(req)
		if err != nil {
			fmt.Printf("%s error: %v\n", path, err)
			failed = true
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			fmt.Printf("%s error reading body: %v\n", path, err)
			failed = true
			continue
		}

		fmt.Printf("%s status: %d\n", path, resp.StatusCode)
		fmt.Printf("Response:\n%s\n\n", string(body))
		if resp.StatusCode != http.StatusOK {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}
