// Command smokecheck probes a running turmas-api instance after deploy.
// It logs in, walks a list of read-only endpoints and verifies each
// responds with the expected status within the latency budget.
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
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	WantStatus int    `json:"want_status"`
	Auth       bool   `json:"auth"`
	Critical   bool   `json:"critical"`
}

type targetsFile struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target   target
	Status   int
	Duration time.Duration
	Error    error
}

var defaultTargets = []target{
	{Method: http.MethodGet, Path: "/health", WantStatus: http.StatusOK, Critical: true},
	{Method: http.MethodGet, Path: "/ready", WantStatus: http.StatusOK, Critical: true},
	{Method: http.MethodGet, Path: "/metrics", WantStatus: http.StatusOK},
	{Method: http.MethodGet, Path: "/api/v1/turmas", WantStatus: http.StatusOK, Auth: true, Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/turmas/disponiveis", WantStatus: http.StatusOK, Auth: true, Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/campuses", WantStatus: http.StatusOK, Auth: true},
	{Method: http.MethodGet, Path: "/api/v1/me/inscricoes", WantStatus: http.StatusOK, Auth: true},
	{Method: http.MethodGet, Path: "/api/v1/dashboard", WantStatus: http.StatusOK, Auth: true},
}

func main() {
	var (
		base        string
		email       string
		password    string
		targetsPath string
		timeout     time.Duration
		slowAfter   time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&email, "email", os.Getenv("SMOKE_EMAIL"), "Login email for authenticated targets")
	flag.StringVar(&password, "password", os.Getenv("SMOKE_PASSWORD"), "Login password")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "smokecheck", "targets.json"), "Optional JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.DurationVar(&slowAfter, "slow-after", time.Second, "Flag responses slower than this")
	flag.Parse()

	targets := defaultTargets
	if loaded, err := loadTargets(targetsPath); err == nil {
		targets = loaded
	} else if !os.IsNotExist(err) {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}

	token := ""
	if needsAuth(targets) {
		if email == "" || password == "" {
			log.Fatal("authenticated targets require -email and -password (or SMOKE_EMAIL/SMOKE_PASSWORD)")
		}
		tok, err := login(client, base, email, password)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
		token = tok
	}

	var failures int
	results := make([]result, 0, len(targets))
	for _, t := range targets {
		res := probe(client, base, token, t)
		failed := res.Error != nil || res.Status != t.WantStatus
		if failed && t.Critical {
			failures++
		}
		results = append(results, res)
	}

	printReport(results, slowAfter)
	fmt.Printf("Critical failures: %d\n", failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f targetsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return f.Targets, nil
}

func needsAuth(targets []target) bool {
	for _, t := range targets {
		if t.Auth {
			return true
		}
	}
	return false
}

func login(client *http.Client, base, email, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	resp, err := client.Post(strings.TrimRight(base, "/")+"/api/v1/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if envelope.Data.AccessToken == "" {
		return "", fmt.Errorf("login response carried no access token")
	}
	return envelope.Data.AccessToken, nil
}

func probe(client *http.Client, base, token string, tgt target) result {
	res := result{Target: tgt}

	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		res.Error = err
		return res
	}
	if tgt.Auth && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	res.Status = resp.StatusCode
	return res
}

func printReport(results []result, slowAfter time.Duration) {
	fmt.Println("Smoke Check Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case res.Status != res.Target.WantStatus:
			status = "FAIL"
		case res.Duration > slowAfter:
			status = "SLOW"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (want %d) in %s | Critical: %t\n", res.Status, res.Target.WantStatus, res.Duration, res.Target.Critical)
	}
}
