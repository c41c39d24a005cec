package bootstrap

import (
	"log/slog"
	"net/http"

	"evervoice/internal/audio"
	"evervoice/internal/config"
	"evervoice/internal/history"
	"evervoice/internal/hotkey"
	"evervoice/internal/ports"
	"evervoice/internal/providers/openai"
	"evervoice/internal/providers/webhook"
	"evervoice/internal/settings"
	"evervoice/internal/storage"
	"evervoice/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Settings   *settings.Manager
	History    *history.Store
	Recordings *storage.RecordingStore
	Webhook    *webhook.Caller
	Hotkeys    ports.HotkeyRegistrar
	Config     config.Config
}

// Close releases the resources Build opened.
func (s Services) Close() error {
	if s.Hotkeys != nil {
		s.Hotkeys.Unregister()
	}
	if s.History != nil {
		return s.History.Close()
	}
	return nil
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink, log *slog.Logger) (Services, error) {
	if log == nil {
		log = slog.Default()
	}

	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	settingsMgr, err := settings.NewManager(cfg.SettingsPath())
	if err != nil {
		return Services{}, err
	}

	recordings := storage.NewRecordingStore(cfg.RecordingsDir())
	if _, err := recordings.EnsureReady(); err != nil {
		return Services{}, err
	}
	if cfg.Storage.CleanupOnStartup {
		removed, err := recordings.CleanupOlderThan(cfg.Storage.RecordingMaxAge)
		if err != nil {
			log.Warn("recording cleanup failed", "error", err)
		} else if removed > 0 {
			log.Info("removed stale recordings", "count", removed)
		}
	}

	db, err := history.Open(cfg.HistoryDir())
	if err != nil {
		return Services{}, err
	}
	historyStore := history.NewStore(db, recordings.Delete, log)

	creds := openai.Credentials(func() (string, string) {
		st := settingsMgr.Get()
		return st.APIKey, st.Language
	})
	providerOpts := openai.Options{
		BaseURL:            cfg.OpenAI.APIBaseURL,
		TranscriptionModel: cfg.OpenAI.TranscriptionModel,
		SummaryModel:       cfg.OpenAI.SummaryModel,
		HTTPClient:         &http.Client{Timeout: cfg.OpenAI.RequestTimeout},
	}

	state := usecase.NewStateStore()
	engine := usecase.NewCaptureEngine(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		ports.DeviceConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
		cfg.Session.ChunkSize,
		eventSink,
	)
	tracker := usecase.NewDurationTracker(
		settingsMgr.Get().MaxDurationSeconds(),
		cfg.Session.TickInterval,
		eventSink,
	)
	orchestrator := usecase.NewOrchestrator(
		openai.NewTranscriber(providerOpts, creds, log),
		openai.NewSummarizer(providerOpts, creds),
		historyStore,
		state,
		eventSink,
		log,
	)
	controller := usecase.NewSessionController(
		engine,
		tracker,
		orchestrator,
		state,
		recordings,
		eventSink,
		func() int { return settingsMgr.Get().MaxDurationSeconds() },
	)

	return Services{
		Controller: controller,
		Settings:   settingsMgr,
		History:    historyStore,
		Recordings: recordings,
		Webhook:    webhook.NewCaller(nil),
		Hotkeys:    hotkey.NewManager(log),
		Config:     cfg,
	}, nil
}
