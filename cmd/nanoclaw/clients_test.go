package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wientjes/nanoclaw/turn"
)

func TestReplierFromViperRule(t *testing.T) {
	replier, err := replierFromViper("rule", nil)
	if err != nil {
		t.Fatalf("replierFromViper: %v", err)
	}
	if _, ok := replier.(*turn.Rules); !ok {
		t.Fatalf("replier type %T, want *turn.Rules", replier)
	}
}

func TestReplierFromViperUnknownStrategy(t *testing.T) {
	if _, err := replierFromViper("telepathy", nil); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestReplierFromViperModelNeedsKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	viper.Set("anthropic.api_key", "")
	defer viper.Set("anthropic.api_key", nil)

	_, err := replierFromViper("model", nil)
	if err == nil || !strings.Contains(err.Error(), "anthropic api key") {
		t.Fatalf("expected missing-key error, got %v", err)
	}
}

func TestFlagOrViperStringPrefersChangedFlag(t *testing.T) {
	viper.Set("strategy", "model")
	defer viper.Set("strategy", nil)

	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("strategy", "", "")

	if got := flagOrViperString(cmd, "strategy", "strategy"); got != "model" {
		t.Fatalf("unset flag: got %q, want viper value", got)
	}
	if err := cmd.Flags().Set("strategy", "rule"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if got := flagOrViperString(cmd, "strategy", "strategy"); got != "rule" {
		t.Fatalf("set flag: got %q, want flag value", got)
	}
}

func TestVersionCommandOutput(t *testing.T) {
	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "nanoclaw ") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}
