package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	intakehandler "kickoff/internal/intake/handler"
	"kickoff/internal/intake/events"
	"kickoff/internal/intake/mapping"
	intakemetrics "kickoff/internal/intake/metrics"
	intakeservice "kickoff/internal/intake/service"
	"kickoff/internal/intake/signature"
	"kickoff/internal/intake/store"
	newsletterhandler "kickoff/internal/newsletter/handler"
	newsletterservice "kickoff/internal/newsletter/service"
	"kickoff/internal/platform/config"
	"kickoff/internal/platform/health"
	"kickoff/internal/platform/kafka/producer"
	"kickoff/internal/platform/tracer"
	"kickoff/internal/resend"
	"kickoff/internal/sharepoint"
	"kickoff/pkg/platform/circuit"
	"kickoff/pkg/platform/middleware/metadata"
	"kickoff/pkg/platform/middleware/request"
)

const eventBuffer = 256

// app holds the assembled router and everything that must be released on shutdown.
type app struct {
	router  http.Handler
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func (a *app) close(log *slog.Logger) {
	for _, c := range a.closers {
		if err := c.close(); err != nil {
			log.Error("failed to close", "component", c.name, "error", err)
		}
	}
}

// recordStore is satisfied by both the SharePoint list store and the in-memory store.
type recordStore interface {
	intakeservice.RecordStore
	newsletterservice.RecordStore
}

func buildApp(cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{}
	checks := health.New(cfg.Environment)
	trace := tracer.NewOTel()

	table, err := loadTable(cfg.Intake.MappingFile)
	if err != nil {
		return nil, err
	}

	m := intakemetrics.New()
	verifier := signature.New(cfg.Intake.WebhookSecret,
		signature.WithFailClosed(cfg.Intake.FailClosed),
		signature.WithLogger(log),
		signature.WithBypassHook(m.IncSignatureBypass),
	)

	records := buildStore(cfg, log, checks, m)
	notifier := buildNotifier(cfg, log)

	sink, err := buildEventSink(cfg, log, checks, a)
	if err != nil {
		return nil, err
	}
	publisher := events.NewAsync(sink, eventBuffer, events.WithAsyncLogger(log))
	// Drain queued events before the producer underneath goes away.
	a.closers = append([]namedCloser{{name: "events", close: func() error {
		publisher.Close()
		return nil
	}}}, a.closers...)

	intake := intakeservice.New(verifier, mapping.NewMapper(table), records, cfg.Intake.ApplicantsListID,
		intakeservice.WithExpectedFormID(cfg.Intake.ExpectedFormID),
		intakeservice.WithNotifier(notifier),
		intakeservice.WithPublisher(publisher),
		intakeservice.WithStoreTimeout(cfg.Intake.StoreTimeout),
		intakeservice.WithNotifyTimeout(cfg.Intake.NotifyTimeout),
		intakeservice.WithLogger(log),
		intakeservice.WithTracer(trace),
		intakeservice.WithMetrics(m),
	)
	newsletter := newsletterservice.New(records, cfg.Intake.NewsletterListID,
		newsletterservice.WithLogger(log),
		newsletterservice.WithTracer(trace),
	)

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(&metadata.Config{TrustedProxies: cfg.TrustedProxies}).Handler)
	r.Use(request.Logger(log))
	r.Use(request.LatencyMiddleware(request.NewMetrics()))
	r.Use(request.BodyLimit(cfg.MaxBodyBytes))

	checks.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	intakehandler.New(intake, log).Register(r)
	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		newsletterhandler.New(newsletter, log).Register(r)
	})

	a.router = r
	return a, nil
}

func loadTable(path string) (*mapping.Table, error) {
	if path == "" {
		return mapping.DefaultTable(), nil
	}
	table, err := mapping.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load field mapping: %w", err)
	}
	return table, nil
}

func buildStore(cfg config.Server, log *slog.Logger, checks *health.Handler, m *intakemetrics.Metrics) recordStore {
	if !cfg.SharePoint.Configured() {
		log.Warn("sharepoint not configured; records are kept in memory and lost on restart")
		return store.NewInMemory()
	}

	sp := cfg.SharePoint
	tokens := sharepoint.NewTokenSource(sharepoint.Credentials{
		TenantID:     sp.TenantID,
		ClientID:     sp.ClientID,
		ClientSecret: sp.ClientSecret,
	}, sharepoint.WithLoginURL(sp.LoginURL))
	client := sharepoint.NewClient(sp.SiteID, tokens, sharepoint.WithGraphURL(sp.GraphURL))
	checks.RegisterCheck("sharepoint", client.Check)

	return sharepoint.NewListStore(client, circuit.New("sharepoint", circuit.WithStateHook(m.SetCircuitState)), log)
}

func buildNotifier(cfg config.Server, log *slog.Logger) intakeservice.Notifier {
	if !cfg.Email.Configured() {
		log.Warn("resend not configured; thank-you emails are disabled")
		return resend.NewNoopNotifier(log)
	}

	e := cfg.Email
	client := resend.NewClient(e.APIKey, resend.WithBaseURL(e.Endpoint))
	opts := []resend.NotifierOption{resend.WithLogger(log)}
	if e.ReplyTo != "" {
		opts = append(opts, resend.WithReplyTo(e.ReplyTo))
	}
	if e.Subject != "" {
		opts = append(opts, resend.WithSubject(e.Subject))
	}
	if len(e.SummaryFields) > 0 {
		opts = append(opts, resend.WithSummaryFields(e.SummaryFields...))
	}
	return resend.NewThankYouNotifier(client, e.From, opts...)
}

func buildEventSink(cfg config.Server, log *slog.Logger, checks *health.Handler, a *app) (events.Sink, error) {
	if cfg.Events.Brokers == "" {
		return events.NewLogPublisher(log), nil
	}

	p, err := producer.New(producer.Config{
		Brokers:  cfg.Events.Brokers,
		ClientID: "kickoff",
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init kafka producer: %w", err)
	}
	checks.RegisterCheck("kafka", p.Check)
	a.closers = append(a.closers, namedCloser{name: "kafka", close: p.Close})

	return events.NewKafkaPublisher(p, cfg.Events.Topic), nil
}
