// Package commands implements the CLI commands for fewshot.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "fewshot",
	Short: "Few-shot entity extraction using text-completion services",
	Long: `Fewshot extracts named entities from short text snippets by sending
few-shot prompts to a text-completion service.

Define a task file with a description, a label template, and worked
examples; feed it text from flags, stdin, or a public JSON feed; and
get the extracted entities in JSON, JSONL, or YAML.

Examples:
  # Extract from literal snippets
  fewshot extract -t movies.yaml --text "a wizard boy goes to magic school"

  # Pull query text from a public content feed
  fewshot extract -t movies.yaml \
      --feed-url "https://api.example.com/posts" \
      --feed-param subreddit=movies --feed-limit 10

  # Use a specific provider and model
  fewshot extract -t movies.yaml --text "..." -p cohere -m command`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.fewshot.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".fewshot")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("FEWSHOT")
	viper.AutomaticEnv()

	// Also check common API key env vars
	_ = viper.BindEnv("api_key", "COHERE_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
