// Command smoke probes a running instance and reports per-endpoint status.
// Intended for post-deploy checks: it exits non-zero when any critical
// endpoint fails.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

type probe struct {
	Name     string
	Method   string
	Path     string
	WantCode int
	Critical bool
}

var probes = []probe{
	{Name: "health", Method: http.MethodGet, Path: "/health", WantCode: http.StatusOK, Critical: true},
	{Name: "readiness", Method: http.MethodGet, Path: "/ready", WantCode: http.StatusOK, Critical: true},
	{Name: "metrics", Method: http.MethodGet, Path: "/metrics", WantCode: http.StatusOK, Critical: false},
	{Name: "teacher list", Method: http.MethodGet, Path: "/api/v1/teachers", WantCode: http.StatusOK, Critical: true},
	{Name: "course list", Method: http.MethodGet, Path: "/api/v1/courses", WantCode: http.StatusOK, Critical: false},
	{Name: "auth guard", Method: http.MethodPost, Path: "/api/v1/bookings", WantCode: http.StatusUnauthorized, Critical: true},
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "base URL of the running instance")
	timeout := flag.Duration("timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	client := &http.Client{Timeout: *timeout}
	failed := false

	for _, p := range probes {
		req, err := http.NewRequest(p.Method, *baseURL+p.Path, nil)
		if err != nil {
			fmt.Printf("FAIL  %-14s %v\n", p.Name, err)
			failed = failed || p.Critical
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			fmt.Printf("FAIL  %-14s %v\n", p.Name, err)
			failed = failed || p.Critical
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != p.WantCode {
			fmt.Printf("FAIL  %-14s %s %s: got %d, want %d\n", p.Name, p.Method, p.Path, resp.StatusCode, p.WantCode)
			failed = failed || p.Critical
			continue
		}
		fmt.Printf("OK    %-14s %s %s\n", p.Name, p.Method, p.Path)
	}

	if failed {
		os.Exit(1)
	}
}
