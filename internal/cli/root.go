package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is overridden at build time with -ldflags "-X .../cli.Version=..."
var Version = "0.1.0"

var (
	cfgFile  string
	verbose  bool
	provider string
	llmModel string
	logLevel string
	noCache  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wildlens",
	Short: "wildlens - identify animals in photos and learn key facts",
	Long: `wildlens classifies an animal photo and augments the prediction with a
few short facts taken from the matching Wikipedia article: whether the
animal is dangerous, first aid for snake bites, and where it lives.

Facts are keyword-selected sentences, not advice. Always check the linked
article.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wildlens v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.wildlens/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&provider, "provider", "", "classifier backend (sidecar, openai, anthropic, ollama)")
	flags.StringVar(&llmModel, "model", "", "classifier model name")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&noCache, "no-cache", false, "disable article cache (force fresh fetch)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("classifier.provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("classifier.model", flags.Lookup("model"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := registerDefaults(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".wildlens"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// WILDLENS_CLASSIFIER_PROVIDER overrides classifier.provider, and so on
	viper.SetEnvPrefix("WILDLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
