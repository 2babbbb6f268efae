package startup

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"media-library/internal/logging"
	"media-library/internal/memory"
	"media-library/internal/video"
)

func section(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// LogMemoryConfig logs how the heap limit was decided.
func LogMemoryConfig(l memory.Limit) {
	section("MEMORY")
	switch l.Source {
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT:      %d bytes (from environment)", l.GoMemLimit)
	case "MEMORY_LIMIT":
		logging.Info("  Container limit: %d bytes", l.ContainerLimit)
		logging.Info("  GOMEMLIMIT:      %d bytes (%.0f%%)", l.GoMemLimit, l.Ratio*100)
	default:
		logging.Info("  No memory limit configured; prefetch backpressure disabled")
	}
}

// LogLibraryInit logs catalogue and service initialization.
func LogLibraryInit(duration time.Duration) {
	section("LIBRARY INITIALIZATION")
	logging.Info("  [OK] Catalogue opened in %v", duration)
}

// LogVideoTools reports whether ffprobe and ffmpeg were found.
func LogVideoTools(p *video.Prober) {
	if p.CanProbe() {
		logging.Info("  [OK] ffprobe available (video import checks, durations)")
	} else {
		logging.Warn("  ffprobe not found: video codecs are not verified on import")
	}
	if p.CanExtractFrames() {
		logging.Info("  [OK] ffmpeg available (video thumbnails)")
	} else {
		logging.Warn("  ffmpeg not found: video thumbnails are unavailable")
	}
}

// LogImageBackend reports whether thumbnails are decoded with libvips.
func LogImageBackend(vipsAvailable bool, err error) {
	switch {
	case err != nil:
		logging.Warn("  libvips failed to start, using pure-Go decoders: %v", err)
	case vipsAvailable:
		logging.Info("  [OK] libvips available (decode-time thumbnail shrinking)")
	default:
		logging.Info("  libvips not compiled in; thumbnails use pure-Go decoders")
	}
}

// LogIndexerInit logs indexer configuration.
func LogIndexerInit(interval time.Duration, watch bool) {
	section("INDEXER INITIALIZATION")
	if interval > 0 {
		logging.Info("  Index interval: %v", interval)
	} else {
		logging.Info("  Periodic re-index: DISABLED")
	}
	logging.Info("  Change watching: %s", enabledString(watch))
	logging.Info("  [OK] Indexer started")
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...any) {
	logging.Fatal(format, args...)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___         ___          __    _ __
   /  |/  /__  ____/ (_)___ _   / /   (_) /_  _________ ________  __
  / /|_/ / _ \/ __  / / __ '/  / /   / / __ \/ ___/ __ '/ ___/ / / /
 / /  / /  __/ /_/ / / /_/ /  / /___/ / /_/ / /  / /_/ / /  / /_/ /
/_/  /_/\___/\__,_/_/\__,_/  /_____/_/_.___/_/   \__,_/_/   \__, /
                                                           /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}
