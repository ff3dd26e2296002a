package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	hk "golang.design/x/hotkey"

	"github.com/voxkey/voxkey/internal/audio"
	"github.com/voxkey/voxkey/internal/capture"
	"github.com/voxkey/voxkey/internal/clipboard"
	"github.com/voxkey/voxkey/internal/config"
	"github.com/voxkey/voxkey/internal/hotkey"
	"github.com/voxkey/voxkey/internal/logger"
	"github.com/voxkey/voxkey/internal/notification"
	"github.com/voxkey/voxkey/internal/permissions"
	"github.com/voxkey/voxkey/internal/recognition"
	"github.com/voxkey/voxkey/internal/tray"
	"github.com/voxkey/voxkey/internal/trigger"
)

const version = "0.2.0"

// App holds all application state
type App struct {
	logger     *logger.Logger
	config     *config.Config
	trayMgr    *tray.Manager
	notifier   *notification.Manager
	driver     audio.Driver
	recorder   *capture.Recorder
	hotkeyMgr  *hotkey.Manager
	adapter    *trigger.Adapter
	recognizer *recognition.WhisperRecognizer
	clipboard  *clipboard.Manager

	micGranted  bool
	accGranted  bool
	modelLoaded bool
}

func init() {
	// CGO calls into AppKit require the main thread
	runtime.LockOSThread()
}

func main() {
	app := &App{}

	loggerConfig := logger.DefaultConfig()
	var err error
	app.logger, err = logger.New(loggerConfig)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer app.logger.Close()

	app.logger.Info("VoxKey v%s starting", version)

	configPath := config.GetConfigPath()
	app.config, err = config.Load(configPath)
	if err != nil {
		app.logger.Error("Failed to load config: %v", err)
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := app.config.Validate(); err != nil {
		app.logger.Error("Invalid config: %v", err)
		log.Fatalf("Invalid config: %v", err)
	}
	app.logger.Info("Config loaded from %s", configPath)

	app.notifier = notification.NewManager("VoxKey")

	app.clipboard = clipboard.NewManager(clipboard.Config{
		RestoreTimeout: 500 * time.Millisecond,
		SplitSize:      app.config.PasteSplitSize,
		SplitInterval:  50 * time.Millisecond,
		PrefixKey:      app.config.ChatPrefixKey,
		AutoSend:       app.config.AutoSend,
	})

	app.recognizer = recognition.NewWhisperRecognizer(recognition.Config{
		Language: app.config.Language,
	})
	defer app.recognizer.Close()

	app.trayMgr = tray.NewManager(tray.Config{
		OnReady:      app.onReady,
		OnRecordTest: app.handleRecordTest,
		OnQuit:       app.handleQuit,
	})

	// systray.Run blocks until Quit
	app.trayMgr.Run()
}

// onReady finishes initialization once the systray is up
func (a *App) onReady() {
	checker := permissions.NewChecker()
	a.micGranted, a.accGranted = checker.CheckAll()

	if a.micGranted {
		a.logger.Info("Microphone permission: granted")
	} else {
		a.logger.Warn("Microphone permission: not granted - recording disabled")
		a.notifier.MicrophonePermissionDenied()
	}

	if a.accGranted {
		a.logger.Info("Accessibility permission: granted")
	} else {
		a.logger.Warn("Accessibility permission: not granted - hotkey and paste disabled")
		a.notifier.AccessibilityPermissionDenied()
	}

	if a.config.ModelPath != "" {
		modelPath, err := a.config.GetModelPath()
		if err != nil {
			a.logger.Error("Failed to expand model path: %v", err)
		} else if err := a.config.ValidateModelPath(); err != nil {
			a.logger.Warn("Model path validation failed: %v", err)
		} else if err := a.recognizer.LoadModel(modelPath); err != nil {
			a.logger.Warn("Failed to load model: %v", err)
			a.trayMgr.ShowError(fmt.Sprintf("Failed to load model: %v", err))
		} else {
			a.logger.Info("Model loaded: %s", modelPath)
			a.modelLoaded = true
		}
	} else {
		a.logger.Warn("No model path configured")
	}

	if a.micGranted {
		driver, err := audio.NewPortAudioDriver(audio.HighStability)
		if err != nil {
			a.logger.Error("Failed to create PortAudio driver: %v", err)
		} else {
			a.driver = driver

			a.recorder = capture.NewRecorder(driver, capture.Config{
				DeviceID:    a.config.AudioDeviceID,
				SampleRate:  a.config.SampleRate,
				Channels:    a.config.Channels,
				MaxDuration: time.Duration(a.config.MaxRecordTime) * time.Second,
			}, a.logger, a.onOverflow)

			a.logger.Info("Capture recorder ready (device: %d, %d Hz, up to %ds)",
				a.config.AudioDeviceID, a.config.SampleRate, a.config.MaxRecordTime)
		}
	}

	if a.accGranted && a.recorder != nil {
		a.hotkeyMgr = hotkey.New()

		hotkeyConfig := hotkey.Config{
			Modifiers: configToModifiers(a.config.Hotkey),
			Key:       stringToKey(a.config.Hotkey.Key),
			Mode:      configToMode(a.config.RecordingMode),
		}

		if conflicts := hotkey.CheckConflicts(hotkeyConfig.Modifiers, hotkeyConfig.Key); len(conflicts) > 0 {
			a.logger.Warn("Configured hotkey conflicts with %s", conflicts[0].Name)
		}

		if err := a.hotkeyMgr.Register(hotkeyConfig); err != nil {
			a.logger.Error("Failed to register hotkey: %v", err)
			a.trayMgr.ShowError(fmt.Sprintf("Failed to register hotkey: %v", err))
		} else {
			a.logger.Info("Hotkey registered: %s",
				hotkey.FormatHotkey(hotkeyConfig.Modifiers, hotkeyConfig.Key))

			a.adapter = trigger.New(a.hotkeyMgr.Events(), a.trackedRecorder(), a.logger)
			a.adapter.Run()

			go a.transcriptionLoop()
		}
	}

	a.logger.Info("Application initialized")

	// Handle Ctrl+C so teardown still runs when launched from a terminal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		a.logger.Info("Shutdown signal received")
		a.handleQuit()
		a.trayMgr.Quit()
	}()

	fmt.Println("==========================================================")
	fmt.Printf("VoxKey v%s is running\n", version)
	if a.hotkeyMgr != nil {
		cfg := a.hotkeyMgr.GetConfig()
		fmt.Printf("Hold %s to record; release to transcribe and paste\n",
			hotkey.FormatHotkey(cfg.Modifiers, cfg.Key))
	}
	fmt.Println("Quit with Ctrl+C or from the menu bar icon")
	fmt.Println("==========================================================")
}

// onOverflow is the recorder's one-shot overflow notifier. It runs on its
// own goroutine, never on the audio callback.
func (a *App) onOverflow(message string) {
	a.logger.Warn("Capture overflow: %s", message)
	a.notifier.RecordingTruncated(message)
}

// trackedRecorder wraps the recorder so the tray icon follows the session
func (a *App) trackedRecorder() trigger.Controller {
	return &trayTracking{recorder: a.recorder, trayMgr: a.trayMgr}
}

type trayTracking struct {
	recorder *capture.Recorder
	trayMgr  *tray.Manager
}

func (t *trayTracking) Start() error {
	err := t.recorder.Start()
	if err == nil {
		t.trayMgr.SetState(tray.StateRecording)
	}
	return err
}

func (t *trayTracking) Stop() ([]float32, error) {
	samples, err := t.recorder.Stop()
	if err != nil || len(samples) == 0 {
		t.trayMgr.SetState(tray.StateIdle)
	} else {
		t.trayMgr.SetState(tray.StateProcessing)
	}
	return samples, err
}

func (t *trayTracking) IsCapturing() bool {
	return t.recorder.IsCapturing()
}

// transcriptionLoop consumes completed captures, transcribes them, and
// pastes the text into the active application
func (a *App) transcriptionLoop() {
	a.logger.Info("Transcription loop started")

	for samples := range a.adapter.Captures() {
		a.logger.Info("Capture received: %d samples", len(samples))
		a.processCapture(samples)
		a.trayMgr.SetState(tray.StateIdle)
	}

	a.logger.Info("Transcription loop ended")
}

func (a *App) processCapture(samples []float32) {
	if !a.modelLoaded {
		a.logger.Warn("Skipping transcription: no model loaded")
		a.trayMgr.ShowError("No model loaded. Set model_path in the config file.")
		return
	}

	text, err := a.recognizer.Transcribe(samples, a.config.SampleRate)
	if err != nil {
		a.logger.Error("Transcription failed: %v", err)
		a.notifier.TranscriptionFailed(err.Error())
		return
	}

	if text == "" {
		a.logger.Warn("Transcription produced no text")
		return
	}
	a.logger.Info("Transcribed: %s", text)

	if !a.accGranted {
		a.logger.Warn("Skipping paste: no accessibility permission")
		return
	}

	if err := a.clipboard.Paste(text); err != nil {
		a.logger.Error("Paste failed: %v", err)
		a.trayMgr.ShowError(fmt.Sprintf("Paste failed: %v", err))
		return
	}

	a.logger.Info("Paste complete")
}

// handleRecordTest records a short clip and reports the transcription
func (a *App) handleRecordTest() {
	a.logger.Info("Record test requested")

	go func() {
		if a.recorder == nil {
			a.trayMgr.ShowError("Recording is unavailable. Check microphone permission.")
			return
		}
		if a.recorder.IsCapturing() {
			a.trayMgr.ShowError("A recording is already in progress.")
			return
		}

		a.trayMgr.ShowNotification("Record Test", "Recording for 5 seconds, speak now")
		a.trayMgr.SetState(tray.StateRecording)

		if err := a.recorder.Start(); err != nil {
			a.logger.Error("Record test start failed: %v", err)
			a.notifier.CaptureFailed(err.Error())
			a.trayMgr.SetState(tray.StateIdle)
			return
		}

		time.Sleep(5 * time.Second)

		a.trayMgr.SetState(tray.StateProcessing)
		samples, err := a.recorder.Stop()
		if err != nil {
			a.logger.Error("Record test stop failed: %v", err)
			a.notifier.CaptureFailed(err.Error())
			a.trayMgr.SetState(tray.StateIdle)
			return
		}

		a.logger.Info("Record test captured %d samples", len(samples))

		if a.modelLoaded {
			text, err := a.recognizer.Transcribe(samples, a.config.SampleRate)
			if err != nil {
				a.notifier.TranscriptionFailed(err.Error())
			} else {
				a.trayMgr.ShowNotification("Record Test", "Transcription: "+text)
			}
		} else {
			a.trayMgr.ShowNotification("Record Test",
				fmt.Sprintf("Captured %.1fs of audio (no model loaded)",
					float64(len(samples))/float64(a.config.SampleRate)))
		}

		a.trayMgr.SetState(tray.StateIdle)
	}()
}

// handleQuit tears everything down in reverse order of construction
func (a *App) handleQuit() {
	a.logger.Info("Quit requested")

	if a.adapter != nil {
		a.adapter.Stop()
	}

	if a.hotkeyMgr != nil {
		if err := a.hotkeyMgr.Close(); err != nil {
			a.logger.Warn("Hotkey close failed: %v", err)
		}
	}

	if a.recorder != nil {
		a.recorder.Close()
	}

	if a.driver != nil {
		if err := a.driver.Terminate(); err != nil {
			a.logger.Warn("Audio driver termination failed: %v", err)
		}
	}

	a.logger.Info("Shutdown complete")
}

// configToModifiers converts the persisted hotkey flags to modifiers
func configToModifiers(hkConfig config.HotkeyConfig) []hk.Modifier {
	var mods []hk.Modifier
	if hkConfig.Ctrl {
		mods = append(mods, hk.ModCtrl)
	}
	if hkConfig.Shift {
		mods = append(mods, hk.ModShift)
	}
	if hkConfig.Alt {
		mods = append(mods, hk.ModOption)
	}
	if hkConfig.Cmd {
		mods = append(mods, hk.ModCmd)
	}
	return mods
}

// configToMode maps the persisted mode string to a recording mode
func configToMode(mode string) hotkey.RecordingMode {
	if mode == "toggle" {
		return hotkey.Toggle
	}
	return hotkey.PressToHold
}

// stringToKey converts a key name to a key code; unknown names fall back
// to Space
func stringToKey(keyStr string) hk.Key {
	special := map[string]hk.Key{
		"Space":  hk.KeySpace,
		"Escape": hk.KeyEscape,
		"Return": hk.KeyReturn,
		"Tab":    hk.KeyTab,
	}
	if key, ok := special[keyStr]; ok {
		return key
	}

	if len(keyStr) == 1 {
		c := keyStr[0]
		if c >= 'A' && c <= 'Z' {
			return hk.KeyA + hk.Key(c-'A')
		}
		if c >= '0' && c <= '9' {
			return hk.Key0 + hk.Key(c-'0')
		}
	}

	return hk.KeySpace
}
