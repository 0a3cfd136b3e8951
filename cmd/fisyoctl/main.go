package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/studiofisyo/ledger/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "fisyoctl",
	Short:        "Studio FISYO reminders CLI",
	Long:         `Run reminder batches, manage VAPID keys and enroll push subscriptions.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fisyo.yaml)")
}

func initConfig() {
	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".fisyo")

		if _, err := os.Stat(filepath.Join(home, ".fisyo.yaml")); os.IsNotExist(err) {
			return
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
	}
}

func loadConfig() (*config.Config, error) {
	return config.FromViper(viper.GetViper())
}

func main() {
	Execute()
}
