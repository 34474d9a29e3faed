package cmd

import "testing"

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"serve", "ask", "ingest", "version"}

	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	if err := askCmd.Args(askCmd, nil); err == nil {
		t.Fatal("expected error for missing question argument")
	}
	if err := askCmd.Args(askCmd, []string{"what is RAG?"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
