package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

// execute runs the CLI with args and reports whether a command failed.
func execute(t *testing.T, args ...string) (failed bool) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			failed = true
			closeAuditLog()
		}
	}()
	rootCmd.SetArgs(args)
	rootCmd.Execute()
	return false
}

func TestCommandErrorsReachAuditLog(t *testing.T) {
	dir := t.TempDir()
	def := defaultAuditLog
	defaultAuditLog = filepath.Join(dir, "talkingcar.log")
	t.Cleanup(func() {
		defaultAuditLog = def
		log.SetOutput(os.Stderr)
		log.SetFormatter(&log.TextFormatter{})
		log.SetLevel(log.InfoLevel)
	})

	configured := filepath.Join(dir, "car.log")
	valid := filepath.Join(dir, "config.json")
	body := `{"ignition_pin": 17, "serial_port": "/nonexistent/ttyS9", "log_file": "` + configured + `"}`
	if err := os.WriteFile(valid, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	tts := []struct {
		args []string
		log  string
		want string
	}{
		{[]string{"probe", "--config", filepath.Join(dir, "missing.json")}, defaultAuditLog, "missing.json"},
		{[]string{"play", "--config", valid}, configured, "cannot open serial port"},
	}
	for i, tt := range tts {
		if !execute(t, tt.args...) {
			t.Fatalf("#%d: expected %v to fail", i, tt.args)
		}
		b, err := os.ReadFile(tt.log)
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		got := string(b)
		if !strings.Contains(got, "level=error") || !strings.Contains(got, tt.want) {
			t.Fatalf("#%d: expected error entry with %q in %s, got %q", i, tt.want, tt.log, got)
		}
	}
}
