// Package main provides the repeater controller entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/brian7m3/DRX/internal/app/dispatcher"
	"github.com/brian7m3/DRX/internal/app/playback"
	"github.com/brian7m3/DRX/internal/app/scheduler"
	"github.com/brian7m3/DRX/internal/app/status"
	"github.com/brian7m3/DRX/internal/domain/track"
	"github.com/brian7m3/DRX/internal/infra/config"
	"github.com/brian7m3/DRX/internal/infra/gpio"
	"github.com/brian7m3/DRX/internal/infra/logger"
	"github.com/brian7m3/DRX/internal/infra/player"
	"github.com/brian7m3/DRX/internal/infra/serial"
)

var (
	app        = kingpin.New("drx", "DRX repeater audio controller")
	configPath = app.Flag("config", "Path to config file").Default("config/drx.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	noHardware = app.Flag("no-hardware", "Run without GPIO and serial; read commands from stdin").Bool()

	// check-config command
	checkConfigCmd = app.Command("check-config", "Validate the config file and exit")
)

func init() {
	app.Command("start", "Start the controller (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Flag-only logger first, so config load failures are visible.
	if err := logger.Init(loggerFromFlags(logger.Config{})); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Re-init with the config's log section; flags take precedence.
	if err := logger.Init(loggerFromFlags(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})); err != nil {
		zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
	}

	if command == checkConfigCmd.FullCommand() {
		printConfig(cfg)
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Controller error: %v", err)
		os.Exit(1)
	}
}

// run wires the controller and blocks until a shutdown signal.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lib := track.NewLibrary(cfg.Sound.Directory, cfg.Sound.Extension)
	sched := scheduler.NewSet(lib, schedulerBlocks(cfg))

	statusMgr := status.NewManager()
	defer statusMgr.Close()
	statusMgr.Subscribe(func(s status.Snapshot) {
		zlog.Debug().Stringer("state", s.State).Str("now_playing", s.NowPlaying).Msg("status changed")
	})

	cos, busyOut, lines, err := openHardware(ctx, cfg)
	if err != nil {
		return err
	}

	never, interval := cfg.ParseMessageTimer()

	sup := playback.NewSupervisor(
		player.New(cfg.Sound.Device),
		cos,
		busyOut,
		track.Duration,
		statusMgr,
		playback.Config{
			Debounce:         durationMs(cfg.GPIO.COSDebounceMs),
			MaxInterruptions: cfg.GPIO.MaxCOSInterruptions,
		},
	)

	disp := dispatcher.New(lib, sched, sup, statusMgr, dispatcher.Config{
		MessageTimer:      dispatcher.MessageTimer{Never: never, Interval: interval},
		DirectPlayEnabled: cfg.DirectPlayEnabled(),
	})

	go logEvents(sup)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	zlog.Info().Str("sounds", cfg.Sound.Directory).Int("schedulers", len(sched.Blocks())).Msg("controller running")

	dispatchLoop(disp, lines, sigCh)

	cancel()
	sup.Stop()
	zlog.Info().Msg("Controller stopped")
	return nil
}

type commandSink interface {
	Dispatch(raw string) error
}

// dispatchLoop is the single dispatch goroutine: every command routes
// from here until a shutdown signal arrives. A closed command source
// (stdin EOF in --no-hardware mode) leaves the loop parked on the
// signal channel instead of spinning on the dead channel.
func dispatchLoop(sink commandSink, lines <-chan string, stop <-chan os.Signal) {
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				zlog.Info().Msg("command source closed, waiting for shutdown signal")
				lines = nil
				continue
			}
			if err := sink.Dispatch(line); err != nil {
				zlog.Warn().Err(err).Msg("command rejected")
			}
		case <-stop:
			zlog.Info().Msg("Received shutdown signal...")
			return
		}
	}
}

// loggerFromFlags overlays the command-line logging flags on a base
// config.
func loggerFromFlags(base logger.Config) logger.Config {
	if *verbose {
		base.Level = "debug"
	}
	if *logfile != "" {
		base.File = *logfile
	}
	return base
}

// openHardware sets up the COS input, busy output and command source.
// With --no-hardware everything is stubbed and commands come from
// stdin, one per line.
func openHardware(ctx context.Context, cfg *config.Config) (playback.BusyDetector, playback.BusyOutput, <-chan string, error) {
	if *noHardware {
		zlog.Info().Msg("running without hardware, reading commands from stdin")
		return idleChannel{}, nopBusyOutput{}, stdinLines(ctx), nil
	}

	if err := gpio.Init(); err != nil {
		return nil, nil, nil, err
	}
	cos, err := gpio.NewCOSInput(cfg.GPIO.COSPin, cfg.GPIO.COSActiveHigh)
	if err != nil {
		return nil, nil, nil, err
	}
	busyOut, err := gpio.NewBusyOutput(cfg.GPIO.RemoteBusyPin, cfg.BusyOutputActiveHigh())
	if err != nil {
		return nil, nil, nil, err
	}

	reader := serial.NewReader(serial.Config{
		Port: cfg.Serial.Port,
		Baud: cfg.Serial.Baud,
	})
	go func() {
		if err := reader.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Error().Err(err).Msg("serial reader stopped")
		}
	}()
	return cos, busyOut, reader.Lines(), nil
}

// logEvents drains the supervisor's event stream into the log.
func logEvents(sup *playback.Supervisor) {
	for e := range sup.Events() {
		zlog.Info().
			Stringer("event", e.Type).
			Str("session", e.Session).
			Str("file", e.Display).
			Stringer("mode", e.Mode).
			Msg("playback event")
	}
}

func printConfig(cfg *config.Config) {
	fmt.Printf("Sound directory: %s (%s)\n", cfg.Sound.Directory, cfg.Sound.Extension)
	fmt.Printf("Serial port:     %s @ %d baud\n", cfg.Serial.Port, cfg.Serial.Baud)
	fmt.Printf("COS pin:         %s, busy pin: %s\n", cfg.GPIO.COSPin, cfg.GPIO.RemoteBusyPin)
	fmt.Println("Scheduler blocks:")
	for _, b := range cfg.SchedulerBlocks() {
		fmt.Printf("  %-12s base=%04d end=%04d interval=%s\n", b.Kind, b.Base, b.End, b.Interval)
	}
}

func schedulerBlocks(cfg *config.Config) []scheduler.Block {
	blocks := make([]scheduler.Block, 0, len(cfg.Schedulers))
	for _, b := range cfg.SchedulerBlocks() {
		blocks = append(blocks, scheduler.Block{
			Kind:     scheduler.Kind(b.Kind),
			Base:     b.Base,
			End:      b.End,
			Interval: b.Interval,
		})
	}
	return blocks
}
