package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"tcgp-draft-server/poolgen"
)

var testCatalog = filepath.Join("..", "data", "cards.yaml")

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.json")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func poolLines(out string) []string {
	return strings.Split(strings.TrimSpace(out), "\n")
}

func TestPoolCommandPrintsFullPool(t *testing.T) {
	out, err := runCLI(t, "pool", "--catalog", testCatalog, "--players", "2", "--seed", "42")
	if err != nil {
		t.Fatalf("pool: %v\n%s", err, out)
	}
	lines := poolLines(out)
	if len(lines) != 60 {
		t.Fatalf("expected 60 cards for two players, got %d", len(lines))
	}
	for _, line := range lines {
		id, name, ok := strings.Cut(line, "\t")
		if !ok || id == "" || name == "" {
			t.Fatalf("malformed line %q", line)
		}
		if strings.Contains(name, "Fossil") || name == "Old Amber" {
			t.Errorf("fossil items are excluded, got %q", line)
		}
		if strings.HasPrefix(id, "P-A_") {
			t.Errorf("promo packs are not in the default expansions, got %q", line)
		}
	}
}

func TestPoolCommandSeedIsReproducible(t *testing.T) {
	first, err := runCLI(t, "pool", "--catalog", testCatalog, "--seed", "7")
	if err != nil {
		t.Fatal(err)
	}
	second, err := runCLI(t, "pool", "--catalog", testCatalog, "--seed", "7")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("expected identical pools for the same seed")
	}
}

func TestPoolCommandAppliesToggles(t *testing.T) {
	out, err := runCLI(t, "pool", "--catalog", testCatalog, "--seed", "3", "--no-ex", "--expansions", "A1,A1a,A2")
	if err != nil {
		t.Fatalf("pool: %v\n%s", err, out)
	}
	for _, line := range poolLines(out) {
		id, name, _ := strings.Cut(line, "\t")
		if strings.HasSuffix(name, " ex") {
			t.Errorf("expected no ex cards, got %q", line)
		}
		if strings.HasPrefix(id, "A2a_") || strings.HasPrefix(id, "A2b_") {
			t.Errorf("expected only selected expansions, got %q", line)
		}
	}
}

func TestPoolCommandInsufficientPool(t *testing.T) {
	_, err := runCLI(t, "pool", "--catalog", testCatalog, "--expansions", "P-A")
	if !errors.Is(err, poolgen.ErrInsufficientPool) {
		t.Fatalf("expected ErrInsufficientPool, got %v", err)
	}
}

func TestPoolCommandRejectsBadInput(t *testing.T) {
	if _, err := runCLI(t, "pool", "--catalog", testCatalog, "--players", "0"); err == nil {
		t.Error("expected error for zero players")
	}
	if _, err := runCLI(t, "pool", "--catalog", filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for a missing catalog")
	}
}
