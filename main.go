package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"earshot/audio"
	"earshot/beep"
	"earshot/config"
	"earshot/doctor"
	"earshot/dots"
	"earshot/hotkey"
	"earshot/log"
	"earshot/shutdown"
)

var version = "dev"

var (
	guiMode  bool
	trayMode bool
)

// row is the one dot row every renderer draws and every session animates.
var row = dots.NewRow()

var (
	activeListener *listener
	currentDevice  atomic.Pointer[audio.DeviceInfo]
	shutdownOnce   sync.Once
	quitUI         func()
)

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if activeListener != nil {
			log.SessionEnd(activeListener.sessions())
		}
		log.Close()
		if quitUI != nil {
			quitUI()
		}
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix + " (ctrl+g)"
}

func fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Error(msg)
	fmt.Fprintln(os.Stderr, "Error: "+msg)
	os.Exit(1)
}

func run() {
	configFlag := flag.String("config", "", "Config file path (default: OS config dir, missing file is fine)")
	setupFlag := flag.Bool("setup", false, "Select microphone device and save it to the config file")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	gainFlag := flag.Float64("gain", 0, "Level gain applied to the microphone RMS (default from config)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven, replays a WAV file)")
	hotkeyFlag := flag.Bool("hotkey", true, "Listen for the global "+hotkey.Combo+" hotkey")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Hold longer than this to listen only while held")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Bool("gui", false, "Run with the floating window (gui builds only)")
	flag.Bool("tray", false, "Show listening state in the system tray (tray builds only)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("earshot %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		log.SessionStart(version)
	}

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath, *configFlag == "")
	if err != nil {
		fatalf("%v", err)
	}
	if err := config.Apply(&cfg, config.Config{Device: *deviceFlag, Gain: *gainFlag}); err != nil {
		fatalf("%v", err)
	}

	if *doctorFlag {
		code := doctor.Run(cfg)
		log.Close()
		os.Exit(code)
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: earshot -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], cfg)
		return
	}

	ctx := guiAudioCtx
	if ctx == nil {
		ctx, err = audio.NewContext()
		if err != nil {
			fatalf("initializing audio context: %v", err)
		}
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	switch {
	case *setupFlag:
		selectedDevice, err = audio.SelectDevice(ctx)
		if errors.Is(err, audio.ErrSelectionAborted) {
			os.Exit(130)
		}
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			break
		}
		cfg.Device = selectedDevice.Name
		if err := config.Save(cfgPath, cfg); err != nil {
			log.Warnf("saving config: %v", err)
		}
	case cfg.Device != "":
		if selectedDevice = audio.FindDevice(ctx, cfg.Device); selectedDevice == nil {
			log.Warnf("device not found: %s", cfg.Device)
		}
	}

	captureConfig := audio.DefaultCaptureConfig()
	captureDevice, err := ctx.NewCapture(selectedDevice, captureConfig)
	if err != nil {
		fatalf("initializing capture device: %v", err)
	}
	defer func() { captureDevice.Close() }()

	hasUI := guiMode || trayMode || *tuiFlag
	if !guiMode && *tuiFlag {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(row)
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()
		<-tuiReady
	} else if !guiMode {
		row.Attach()
	}

	activeListener = newListener(cfg.Indicator, cfg.Gain, cfg.SoundsEnabled(), row, sink)

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	if cfg.SoundsEnabled() {
		go beep.Init()
	} else {
		beep.Disable()
	}

	var hotkeyStart, hotkeyStop <-chan struct{}
	hotkeyToggle := alwaysToggle
	if *hotkeyFlag {
		hk := hotkey.New()
		if err := hk.Register(); err != nil {
			log.Errorf("hotkey register error: %v", err)
			if !hasUI {
				fatalf("registering hotkey: %v", err)
			}
		} else {
			defer hk.Unregister()
			tg := hotkey.NewToggle(hk, *longPressFlag)
			defer tg.Close()
			hotkeyStart, hotkeyStop = tg.Start(), tg.Stop()
			hotkeyToggle = func() bool { return tg.Mode() == hotkey.ModeToggle }
		}
	}

	sink.DeviceLine(deviceLineText(selectedDevice))

	preferredDevice := cfg.Device
	currentDevice.Store(selectedDevice)
	deviceLost := make(chan struct{}, 1)
	deviceBack := make(chan struct{}, 1)
	go watchDevices(ctx, preferredDevice, deviceLost, deviceBack)

	listen := func(stop <-chan struct{}, isToggle func() bool) {
		if err := activeListener.listen(captureDevice, stop, isToggle); err != nil {
			log.Errorf("listening error: %v", err)
		}
	}

	for {
		select {
		case <-hotkeyStart:
			log.Info("hotkey_start")
			listen(mergeStop(hotkeyStop, toggleChan), hotkeyToggle)

		case <-toggleChan:
			// A stop left over from a hotkey session ended by the UI.
			select {
			case <-hotkeyStop:
			default:
			}
			listen(mergeStop(toggleChan, hotkeyStart), alwaysToggle)

		case <-deviceSelectChan:
			handleDeviceSwitch(ctx, captureConfig, &captureDevice, &selectedDevice)

		case <-deviceLost:
			if selectedDevice == nil {
				continue
			}
			log.Info("device_disconnected: " + selectedDevice.Name)
			applyDeviceSwitch(ctx, captureConfig, &captureDevice, &selectedDevice, nil)

		case <-deviceBack:
			log.Info("device_reconnected: " + preferredDevice)
			if dev := audio.FindDevice(ctx, preferredDevice); dev != nil {
				applyDeviceSwitch(ctx, captureConfig, &captureDevice, &selectedDevice, dev)
			}
		}
	}
}

// watchDevices polls for hotplug changes. It only signals; the main loop
// owns the capture device and does the switching.
func watchDevices(ctx audio.Context, preferred string, lost, back chan<- struct{}) {
	var last []string
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		devices, err := ctx.Devices()
		if err != nil {
			continue
		}
		names := make([]string, len(devices))
		for i := range devices {
			names[i] = devices[i].Name
		}
		if slices.Equal(last, names) {
			continue
		}
		last = names

		sel := currentDevice.Load()
		switch {
		case sel != nil && !slices.Contains(names, sel.Name):
			notify(lost)
		case sel == nil && preferred != "" && slices.Contains(names, preferred):
			notify(back)
		}
	}
}

// UI-started sessions have no key to hold.
func alwaysToggle() bool { return true }

func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func handleDeviceSwitch(ctx audio.Context, captureConfig audio.CaptureConfig, captureDevice *audio.CaptureDevice, selectedDevice **audio.DeviceInfo) {
	if tuiProgram != nil {
		tuiProgram.ReleaseTerminal()
	}
	newDevice, err := audio.SelectDevice(ctx)
	if tuiProgram != nil {
		tuiProgram.RestoreTerminal()
	}

	if err != nil {
		log.Warnf("device selection failed: %v", err)
		return
	}
	if newDevice != nil {
		applyDeviceSwitch(ctx, captureConfig, captureDevice, selectedDevice, newDevice)
	}
}

func applyDeviceSwitch(ctx audio.Context, captureConfig audio.CaptureConfig, captureDevice *audio.CaptureDevice, selectedDevice **audio.DeviceInfo, newDevice *audio.DeviceInfo) {
	name := "system default"
	if newDevice != nil {
		name = newDevice.Name
	}
	log.Info("device_switch: " + name)
	(*captureDevice).Close()
	newCapture, err := ctx.NewCapture(newDevice, captureConfig)
	if err != nil {
		log.Errorf("capture device reinit error: %v", err)
		return
	}
	*captureDevice = newCapture
	*selectedDevice = newDevice
	currentDevice.Store(newDevice)
	sink.DeviceLine(deviceLineText(newDevice))
}
