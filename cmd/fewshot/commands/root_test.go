package commands

import (
	"testing"

	"github.com/spf13/viper"
)

// --- Flag Binding Tests ---

func TestRootFlags_ConfigBoundToViper(t *testing.T) {
	if err := rootCmd.PersistentFlags().Set("config", "/tmp/custom.yaml"); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}
	defer func() {
		_ = rootCmd.PersistentFlags().Set("config", "")
		viper.Set("config", "")
	}()

	if got := viper.GetString("config"); got != "/tmp/custom.yaml" {
		t.Errorf("--config flag not visible through viper, got %q", got)
	}
}

func TestRootFlags_DebugBoundToViper(t *testing.T) {
	if err := rootCmd.PersistentFlags().Set("debug", "true"); err != nil {
		t.Fatalf("failed to set debug flag: %v", err)
	}
	defer func() {
		_ = rootCmd.PersistentFlags().Set("debug", "false")
	}()

	if !viper.GetBool("debug") {
		t.Error("--debug flag not visible through viper")
	}
}
