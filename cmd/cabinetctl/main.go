// Command cabinetctl is a minimal example binary demonstrating construction
// and use of the cabinet library end to end: it is not part of the core
// deliverable, only a worked example of wiring an Engine with a
// passphrase-derived key.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/cabinetdb/cabinet/pkg/cabinet"
	"github.com/cabinetdb/cabinet/pkg/crypto"
	"github.com/cabinetdb/cabinet/pkg/logging"
	"github.com/cabinetdb/cabinet/pkg/options"
)

func main() {
	root := flag.String("root", "./cabinet-data", "root directory for the cabinet store")
	query := flag.String("query", "", "if set, run a search query and print results instead of saving a demo record")
	flag.Parse()

	if err := run(*root, *query); err != nil {
		fmt.Fprintln(os.Stderr, "cabinetctl:", err)
		os.Exit(1)
	}
}

func run(root, query string) error {
	fmt.Fprint(os.Stderr, "passphrase: ")
	passphraseBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}
	passphrase := string(passphraseBytes)
	crypto.SecureZero(passphraseBytes)

	salt, err := saltForRoot(root)
	if err != nil {
		return fmt.Errorf("failed to determine salt: %w", err)
	}

	masterKey, err := crypto.DeriveKey(passphrase, salt)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}
	defer crypto.SecureZero(masterKey)

	logger, err := logging.New("cabinetctl", true)
	if err != nil {
		return fmt.Errorf("failed to construct logger: %w", err)
	}

	ctx := context.Background()
	engine, err := cabinet.Open(ctx, root, masterKey,
		options.WithLogger(logger),
		options.WithIndexEnabled(true),
	)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	if query != "" {
		results, err := engine.Find(ctx, query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		for _, r := range results {
			fmt.Printf("%s\tscore=%.3f\n", r.ID, r.Score)
		}
		return nil
	}

	id := uuid.NewString()
	demo := map[string]string{"subject": "demo", "description": "cabinetctl example record"}
	if err := engine.Save(ctx, id, demo); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	fmt.Printf("saved record %s\n", id)
	return nil
}

// saltForRoot loads a persistent per-root salt file, creating one on first
// run. A salt must stay stable across invocations or the same passphrase
// would derive a different key each time.
func saltForRoot(root string) ([]byte, error) {
	saltPath := root + "/.cabinetctl-salt"
	if existing, err := os.ReadFile(saltPath); err == nil {
		return existing, nil
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(saltPath, salt, 0o600); err != nil {
		return nil, err
	}
	return salt, nil
}
