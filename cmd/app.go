package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-client/internal/config"
	"chat-client/internal/integrations/chatapi"
	"chat-client/internal/integrations/paramstore"
	"chat-client/internal/repository"
	"chat-client/internal/usecase"
)

// stateNamespace scopes this client's keys inside a shared local database.
const stateNamespace = "chat"

// globalOptions are the persistent flags; empty values leave the loaded
// configuration untouched.
type globalOptions struct {
	configPath  string
	baseURL     string
	storage     string
	storagePath string
	logLevel    string
	timeout     time.Duration
}

func (o globalOptions) apply(cfg *config.Config) {
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.storage != "" {
		cfg.Storage.Backend = o.storage
	}
	if o.storagePath != "" {
		cfg.Storage.Path = o.storagePath
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.timeout > 0 {
		cfg.RequestTimeout = o.timeout
	}
}

// app holds everything one command needs. It is built once per process.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	kv      repository.KV
	adapter *repository.Adapter
	prefs   *usecase.Preferences
	client  *chatapi.Client
	session *usecase.Session
}

func loadConfig(opts globalOptions) (config.Config, error) {
	cfg, err := config.Load(config.Source{ConfigPath: opts.configPath})
	if err != nil {
		return config.Config{}, err
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger, render usecase.Renderer) (*app, error) {
	loadAWS := sync.OnceValues(func() (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})

	kv, err := openKV(cfg, loadAWS)
	if err != nil {
		return nil, err
	}
	log.Debug("storage opened", "backend", cfg.Storage.Backend)

	a, err := wire(ctx, cfg, log, kv, render, loadAWS)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, cfg config.Config, log *slog.Logger, kv repository.KV, render usecase.Renderer, loadAWS func() (aws.Config, error)) (*app, error) {
	adapter, err := repository.NewAdapter(kv, log)
	if err != nil {
		return nil, err
	}
	prefs, err := usecase.NewPreferences(adapter, log)
	if err != nil {
		return nil, err
	}
	if cfg.CredentialParam != "" {
		prefs.WithCredentialFallback(ssmCredential(cfg.CredentialParam, loadAWS))
	}

	client, err := chatapi.NewClient(
		chatapi.WithBaseURL(cfg.BaseURL),
		chatapi.WithTimeout(cfg.RequestTimeout),
		chatapi.WithCredentials(prefs),
	)
	if err != nil {
		return nil, err
	}

	session, err := usecase.NewSession(usecase.SessionConfig{
		History:       adapter,
		Preferences:   prefs,
		Chat:          client,
		Health:        client,
		Renderer:      render,
		Logger:        log,
		Exporter:      usecase.Exporter{Dir: cfg.ExportPath()},
		AssistantName: cfg.AssistantName,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		log:     log,
		kv:      kv,
		adapter: adapter,
		prefs:   prefs,
		client:  client,
		session: session,
	}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

func openKV(cfg config.Config, loadAWS func() (aws.Config, error)) (repository.KV, error) {
	switch cfg.Storage.Backend {
	case config.BackendBolt:
		kv, err := repository.OpenBolt(cfg.StoragePath(), stateNamespace)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case config.BackendPebble:
		kv, err := repository.OpenPebble(cfg.StoragePath(), stateNamespace)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case config.BackendDynamoDB:
		awsCfg, err := loadAWS()
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		kv, err := repository.NewDynamoKV(awsdynamodb.NewFromConfig(awsCfg), cfg.Storage.DynamoDBTable, cfg.DeviceID)
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// ssmCredential resolves the credential from an SSM parameter holding
// {"token": "..."}. The AWS config is only loaded when it is first needed.
func ssmCredential(name string, loadAWS func() (aws.Config, error)) func(context.Context) (string, error) {
	var (
		once   sync.Once
		store  *paramstore.Client
		setErr error
	)
	return func(ctx context.Context) (string, error) {
		once.Do(func() {
			awsCfg, err := loadAWS()
			if err != nil {
				setErr = fmt.Errorf("load AWS config: %w", err)
				return
			}
			store, setErr = paramstore.New(awsssm.NewFromConfig(awsCfg))
		})
		if setErr != nil {
			return "", setErr
		}
		if store == nil {
			return "", errors.New("parameter store unavailable")
		}
		return chatapi.FetchCredential(ctx, store, name)
	}
}
