package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KacperPiotrowski/talkingcar/audio"
	"github.com/KacperPiotrowski/talkingcar/internal/config"
	"github.com/KacperPiotrowski/talkingcar/internal/daemon"
)

var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:   "talkingcar",
		Short: "Plays a greeting once a day when the ignition turns on.",
	}
	flagConfigPath string

	// auditLog is the file behind the standard logger.
	auditLog io.Closer

	defaultAuditLog = config.DefaultLogFile
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		openAuditLog(defaultAuditLog, log.DebugLevel)
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		closeAuditLog()
	}
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "config.json", "path to the configuration file")

	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "watch the ignition and play the daily message",
		Args:  cobra.NoArgs,
		Run:   daemonCommand,
	}
	rootCmd.AddCommand(daemonCmd)

	playCmd := &cobra.Command{
		Use:   "play [track]",
		Short: "play a track on the audio module now",
		Args:  cobra.MaximumNArgs(1),
		Run:   playCommand,
	}
	rootCmd.AddCommand(playCmd)

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "send one status query to the audio module",
		Args:  cobra.NoArgs,
		Run:   probeCommand,
	}
	rootCmd.AddCommand(probeCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

func openAuditLog(path string, level log.Level) {
	closeAuditLog()
	auditLog = daemon.OpenLog(path, level)
}

func closeAuditLog() {
	if auditLog != nil {
		auditLog.Close()
		auditLog = nil
	}
}

// loadConfig reads the configuration and moves the audit log to the
// configured file and level. Errors land in the default audit log.
func loadConfig() *config.Config {
	cfg, err := config.Load(flagConfigPath)
	fatalIf(err)
	openAuditLog(cfg.LogFile, cfg.LogLevel)
	return cfg
}

func daemonCommand(cmd *cobra.Command, args []string) {
	fatalIf(daemon.Run(loadConfig()))
}

func playCommand(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	track := cfg.Track
	if len(args) == 1 {
		n, err := strconv.ParseUint(args[0], 0, 8)
		fatalIf(err)
		track = uint8(n)
	}
	ch, err := audio.Dial(context.Background(), daemon.AudioConfig(cfg), log.StandardLogger())
	fatalIf(err)
	defer ch.Close()
	resp, err := ch.Play(audio.Track(track))
	if errors.Is(err, audio.ErrNoResponse) {
		fmt.Println("no response")
		return
	}
	fatalIf(err)
	fmt.Println(resp)
}

func probeCommand(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ch, err := audio.Open(daemon.AudioConfig(cfg), log.StandardLogger())
	fatalIf(err)
	defer ch.Close()
	resp, err := ch.Query(audio.StatusFrame())
	fatalIf(err)
	if len(resp) == 0 {
		fmt.Println("no response")
		return
	}
	fmt.Println(resp)
}

func main() {
	rootCmd.SetHelpTemplate(`{{.UsageString}}`)
	fatalIf(rootCmd.Execute())
}

// fatalIf panics so deferred closes still run.
func fatalIf(err error) {
	if err != nil {
		log.Error(err)
		panic(err)
	}
}
