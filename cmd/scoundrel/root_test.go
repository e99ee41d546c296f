package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRootCmdHasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"serve", "migrate"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered: %v", name, err)
		}
	}
}

func TestMigrateRejectsMemoryStore(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"migrate"})

	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no migrations") {
		t.Fatalf("err = %v, want no migrations error", err)
	}
}

func TestMigrateSQLite(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DB_PATH", t.TempDir()+"/scoundrel.db")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"migrate"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out.String(), "Migrations completed successfully") {
		t.Errorf("output = %q", out.String())
	}
}

func TestServeRequiresTokenSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"serve"})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected config error")
	}
}
