package service

import (
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/timepulse/internal/parser"
	"github.com/christopherklint97/timepulse/internal/registry"
	"github.com/christopherklint97/timepulse/internal/store"
)

type Options struct {
	// WorkDays are ISO weekdays (Monday=1) shown in the week view.
	WorkDays []int
	// WorkdayHours is what a full day of leave is worth.
	WorkdayHours float64
	// TargetHours is the expected daily total for the week view.
	TargetHours float64
	RegistryTTL time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// Service is the application layer over a Store: it validates and
// normalises input, runs the prompt parser and assembles the read models.
type Service struct {
	store    store.Store
	registry *registry.Registry
	parser   *parser.Parser
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

func New(st store.Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.WorkdayHours <= 0 {
		opts.WorkdayHours = 8
	}
	if opts.TargetHours <= 0 {
		opts.TargetHours = opts.WorkdayHours
	}
	if len(opts.WorkDays) == 0 {
		opts.WorkDays = []int{1, 2, 3, 4, 5}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	reg := registry.New(st, opts.RegistryTTL, logger)
	return &Service{
		store:    st,
		registry: reg,
		parser:   parser.New(reg, logger),
		opts:     opts,
		logger:   logger,
		now:      now,
	}
}

// Store exposes the underlying store for callers that need raw access, such
// as the reminder loop's state.
func (s *Service) Store() store.Store {
	return s.store
}
