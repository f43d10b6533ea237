package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"ghosttab/logger"
)

type Config struct {
	NsID                   int     `json:"ns_id"`
	Provider               string  `json:"provider"`
	ProviderURL            string  `json:"provider_url"`
	ProviderModel          string  `json:"provider_model"`
	ProviderAPIKey         string  `json:"provider_api_key"`
	ProviderTemperature    float64 `json:"provider_temperature"`
	ProviderMaxTokens      int     `json:"provider_max_tokens"`
	MaxContextTokens       int     `json:"max_context_tokens"`
	DebounceDelay          int     `json:"debounce_delay"`  // in milliseconds
	RequestTimeout         int     `json:"request_timeout"` // in milliseconds
	InlineProximity        int     `json:"inline_proximity"`
	AutoTrigger            bool    `json:"auto_trigger"`
	MetricsEndpoint        string  `json:"metrics_endpoint"`
	MetricsAPIKey          string  `json:"metrics_api_key"`
	PrivacyMode            bool    `json:"privacy_mode"`
	LogLevel               string  `json:"log_level"` // debug, info, warn, error
	DebugImmediateShutdown bool    `json:"debug_immediate_shutdown"`
}

type ServerMode string

const (
	ModeDaemon ServerMode = "daemon"
	ModeClient ServerMode = "client"
)

// Setup logger to log to a file in the same directory as the executable.
// Caller must defer logger.Close()
func setupLogger(logLevel string) *logger.LimitedLogger {
	logPath := filepath.Join(execDir(), "ghosttab.log")

	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}

	level := logger.ParseLogLevel(logLevel)
	limitedLogger := logger.NewLimitedLogger(f, level)
	log.SetOutput(limitedLogger)
	return limitedLogger
}

func execDir() string {
	execPath, err := os.Executable()
	if err != nil {
		log.Fatalf("error getting executable path: %v", err)
	}
	return filepath.Dir(execPath)
}

func getSocketPath() string {
	return filepath.Join(execDir(), "ghosttab.sock")
}

func getPidPath() string {
	return filepath.Join(execDir(), "ghosttab.pid")
}

func isDaemonRunning() (bool, int) {
	data, err := os.ReadFile(getPidPath())
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	// On Unix, Signal(0) checks if process exists
	err = process.Signal(syscall.Signal(0))
	return err == nil, pid
}

func loadConfig() Config {
	var config Config
	if err := json.Unmarshal([]byte(os.Getenv("GHOSTTAB_CONFIG")), &config); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: %+v", config)
	return config
}

func runDaemon() {
	config := loadConfig()

	logLevel := config.LogLevel
	if logLevel == "" {
		logLevel = "info"
	}

	logger := setupLogger(logLevel)
	defer logger.Close()

	daemon, err := NewDaemon(config)
	if err != nil {
		log.Fatalf("error creating daemon: %v", err)
	}

	if err := daemon.Start(); err != nil {
		log.Fatalf("error starting daemon: %v", err)
	}
}

func runClient() {
	client := NewClient()

	if err := client.EnsureDaemonRunning(); err != nil {
		log.Fatalf("error ensuring daemon is running: %v", err)
	}

	if err := client.Connect(); err != nil {
		log.Fatalf("error connecting to daemon: %v", err)
	}
}

func main() {
	var mode ServerMode = ModeClient

	if len(os.Args) > 1 && os.Args[1] == "--daemon" {
		mode = ModeDaemon
	}

	switch mode {
	case ModeDaemon:
		runDaemon()
	case ModeClient:
		runClient()
	}
}
