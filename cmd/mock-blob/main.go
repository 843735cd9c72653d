package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/shpitdev/schema-testgen/internal/mockblob"
)

func main() {
	addr := defaultString("MOCK_BLOB_ADDR", ":8080")
	container := defaultString("MOCK_BLOB_CONTAINER", "testcases")
	seedDir := defaultString("MOCK_BLOB_SEED_DIR", "")
	token := defaultString("MOCK_BLOB_TOKEN", "")

	fs := flag.NewFlagSet("mock-blob", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&container, "container", container, "Container name to serve")
	fs.StringVar(&seedDir, "seed-dir", seedDir, "Directory of files to preload as objects (by base name)")
	fs.StringVar(&token, "token", token, "Require this bearer token on all requests (empty disables auth)")
	_ = fs.Parse(os.Args[1:])

	srv := mockblob.New(container)
	srv.RequireBearerToken(token)
	if seedDir != "" {
		if err := seedFromDir(srv, seedDir); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
			os.Exit(1)
		}
	}

	_, _ = fmt.Fprintf(os.Stdout, "mock-blob listening on %s (container=%s)\n", addr, container)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func seedFromDir(srv *mockblob.Server, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		srv.Seed(e.Name(), b)
	}
	return nil
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
