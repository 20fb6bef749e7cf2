package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// purge_cache clears the server's response cache so the next search refetches every listing.
func main() {
	baseURL := flag.String("base-url", "http://localhost:8081", "API base URL")
	secretFlag := flag.String("admin-secret", "", "Admin secret (or use ADMIN_SECRET env)")
	flag.Parse()

	secret := strings.TrimSpace(*secretFlag)
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
	}
	if secret == "" {
		log.Fatal("admin secret required: pass -admin-secret or set ADMIN_SECRET")
	}

	status, body, err := purge(strings.TrimRight(*baseURL, "/"), secret)
	if err != nil {
		log.Fatalf("purge request failed: %v", err)
	}
	fmt.Printf("%s %s\n", status, body)
	if !strings.HasPrefix(status, "200") {
		os.Exit(1)
	}
}

func purge(baseURL, secret string) (string, string, error) {
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/admin/cache/purge", nil)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Admin-Secret", secret)

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return resp.Status, "", fmt.Errorf("read response: %w", err)
	}
	return resp.Status, strings.TrimSpace(string(body)), nil
}
