package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/imei-service/internal/domain"
	"github.com/spec-kit/imei-service/internal/events"
	"github.com/spec-kit/imei-service/internal/observability"
)

// Check outcomes, also used as metric labels.
const (
	OutcomeValid         = "valid"
	OutcomeInvalid       = "invalid"
	OutcomeUpstreamError = "upstream_error"
)

// DeviceLookup resolves a validated IMEI to the upstream device payload.
type DeviceLookup interface {
	Check(ctx context.Context, imei domain.IMEI) (domain.LookupDetails, error)
}

// CheckResult is the outcome of a check that reached a verdict. Upstream failures are
// returned as errors instead.
type CheckResult struct {
	Valid   bool
	IMEI    string
	Message string
	Details domain.LookupDetails
}

// CheckService validates IMEIs and relays valid ones to the lookup service.
type CheckService struct {
	lookup     DeviceLookup
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// CheckDependencies bundles collaborators for the check service.
type CheckDependencies struct {
	Lookup     DeviceLookup
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewCheckService constructs the service.
func NewCheckService(deps CheckDependencies) *CheckService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckService{
		lookup:     deps.Lookup,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Check validates raw and, when valid, fetches the device details. subject is the
// verified token subject of the caller.
func (s *CheckService) Check(ctx context.Context, subject, raw string) (*CheckResult, error) {
	imei, err := domain.ValidateIMEI(raw)
	if err != nil {
		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			return nil, err
		}
		s.record(ctx, subject, raw, OutcomeInvalid)
		return &CheckResult{Valid: false, IMEI: raw, Message: validationErr.Message}, nil
	}

	details, err := s.lookup.Check(ctx, imei)
	if err != nil {
		s.logger.Warn("imei lookup failed", zap.String("imei", imei.String()), zap.Error(err))
		s.record(ctx, subject, imei.String(), OutcomeUpstreamError)
		return nil, err
	}

	s.record(ctx, subject, imei.String(), OutcomeValid)
	return &CheckResult{Valid: true, IMEI: imei.String(), Message: "IMEI is valid", Details: details}, nil
}

func (s *CheckService) record(ctx context.Context, subject, imei, outcome string) {
	s.metrics.RecordCheck(outcome)
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventIMEIChecked,
		Actor:     events.Actor{Subject: subject},
		Timestamp: time.Now(),
		Payload:   events.IMEICheckedPayload{IMEI: imei, Outcome: outcome},
	})
}
