// Package classifier drives the per-contributor classification: account
// validation, incremental event acquisition and the confidence-based decision
// to stop querying.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alimgiray/botscope/internal/activity"
	"github.com/alimgiray/botscope/internal/features"
	"github.com/alimgiray/botscope/internal/models"
	"github.com/alimgiray/botscope/internal/predictor"
	"github.com/alimgiray/botscope/pkg/logger"
	"github.com/sirupsen/logrus"
)

// State is a stage of a classification run
type State string

const (
	StateStart         State = "start"
	StateValidating    State = "validating"
	StateMetadataCheck State = "metadata-check"
	StateFetching      State = "fetching"
	StateExtracting    State = "extracting"
	StatePredicting    State = "predicting"
	StateDeciding      State = "deciding"
	StateTerminal      State = "terminal"
)

// Orchestrator classifies contributors. It holds no per-run state and may be
// shared by concurrent runs.
type Orchestrator struct {
	metadata  MetadataFetcher
	events    EventFetcher
	predictor predictor.Predictor
	budget    Budget
	opts      Options
}

// NewOrchestrator creates an orchestrator. budget may be nil when queries are
// not rate limited.
func NewOrchestrator(metadata MetadataFetcher, events EventFetcher, p predictor.Predictor, budget Budget, opts Options) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if budget == nil {
		budget = NewQueryBudget(0, 1, 0)
	}
	return &Orchestrator{
		metadata:  metadata,
		events:    events,
		predictor: p,
		budget:    budget,
		opts:      opts,
	}, nil
}

// Options returns the stopping policy in use
func (o *Orchestrator) Options() Options {
	return o.opts
}

// WithIncludeFeatures returns a copy sharing the collaborators and budget
// that attaches feature vectors to verdicts as requested
func (o *Orchestrator) WithIncludeFeatures(include bool) *Orchestrator {
	c := *o
	c.opts.IncludeFeatures = include
	return &c
}

// run is the state of one contributor's classification
type run struct {
	o     *Orchestrator
	ctx   context.Context
	login string
	log   *logrus.Entry

	state      State
	account    models.AccountMetadata
	seq        *models.ActivitySequence
	builder    *activity.Builder
	cursor     int
	rawEvents  int
	rounds     int
	queries    int
	exhausted  bool
	vector     models.FeatureVector
	prediction models.PredictionResult

	verdict *models.Verdict
	err     error
}

// Classify runs the state machine for login until it reaches the terminal
// state. The result carries either a verdict or the error that prevented one.
func (o *Orchestrator) Classify(ctx context.Context, login string) *models.ClassificationResult {
	start := time.Now()
	r := &run{
		o:       o,
		ctx:     ctx,
		login:   login,
		log:     logger.WithField("login", login),
		state:   StateStart,
		seq:     models.NewActivitySequence(login),
		builder: activity.NewBuilder(login),
	}

	for r.state != StateTerminal {
		next := r.step()
		r.log.WithFields(logrus.Fields{
			"from":    r.state,
			"to":      next,
			"round":   r.rounds,
			"queries": r.queries,
		}).Debug("state transition")
		r.state = next
	}

	return &models.ClassificationResult{
		Login:       login,
		Verdict:     r.verdict,
		QueriesUsed: r.queries,
		Err:         r.err,
		Duration:    time.Since(start),
	}
}

func (r *run) step() State {
	switch r.state {
	case StateStart:
		return StateValidating
	case StateValidating:
		return r.validate()
	case StateMetadataCheck:
		return r.checkMetadata()
	case StateFetching:
		return r.fetch()
	case StateExtracting:
		r.vector = features.Extract(r.seq)
		return StatePredicting
	case StatePredicting:
		r.prediction = r.o.predictor.Predict(r.vector)
		return StateDeciding
	case StateDeciding:
		return r.decide()
	default:
		panic(fmt.Sprintf("classifier: unexpected state %q", r.state))
	}
}

func (r *run) validate() State {
	if err := r.acquire(); err != nil {
		return r.fail(err)
	}
	account, err := r.o.metadata.Resolve(r.ctx, r.login)
	if err != nil {
		return r.fail(err)
	}
	r.account = account
	if !account.Exists {
		return r.finish(models.VerdictInvalid, nil)
	}
	return StateMetadataCheck
}

func (r *run) checkMetadata() State {
	switch r.account.Type {
	case models.AccountTypeOrganization:
		return r.finish(models.VerdictOrganization, nil)
	case models.AccountTypeBot:
		certain := 1.0
		return r.finish(models.VerdictBot, &certain)
	case models.AccountTypeUser:
		return StateFetching
	default:
		r.log.WithField("account_type", r.account.RawType).Warn("unrecognized account type, treating as user")
		return StateFetching
	}
}

func (r *run) fetch() State {
	if err := r.acquire(); err != nil {
		return r.fail(err)
	}
	r.rounds++
	batch, err := r.o.events.FetchNextBatch(r.ctx, r.login, r.cursor)
	if err != nil {
		return r.fail(err)
	}

	r.builder.Append(r.seq, batch.Events)
	r.rawEvents += len(batch.Events)
	r.cursor = batch.NextCursor
	r.exhausted = batch.Exhausted

	r.log.WithFields(logrus.Fields{
		"round":      r.rounds,
		"events":     r.rawEvents,
		"activities": r.seq.Len(),
		"exhausted":  r.exhausted,
	}).Debug("fetched events")

	if r.rawEvents < r.o.opts.MinEvents || r.seq.Len() == 0 {
		if r.exhausted || r.budgetSpent() {
			return r.finish(models.VerdictUnknown, nil)
		}
		return StateFetching
	}
	return StateExtracting
}

func (r *run) decide() State {
	if r.o.opts.confident(r.prediction) || r.budgetSpent() || r.exhausted {
		confidence := r.prediction.Confidence
		return r.finish(models.VerdictFromLabel(r.prediction.Label), &confidence)
	}
	return StateFetching
}

func (r *run) budgetSpent() bool {
	return r.rounds >= r.o.opts.MaxQueries
}

func (r *run) acquire() error {
	if err := r.o.budget.Acquire(r.ctx); err != nil {
		return err
	}
	r.queries++
	return nil
}

func (r *run) finish(t models.VerdictType, confidence *float64) State {
	v := &models.Verdict{Type: t, Confidence: confidence}
	if r.o.opts.IncludeFeatures && (t == models.VerdictBot || t == models.VerdictHuman) && r.rounds > 0 {
		vector := r.vector
		v.Features = &vector
	}
	r.verdict = v
	return StateTerminal
}

// fail ends the run without a verdict. Cancellation is passed through as is;
// anything else is reported as a transport failure.
func (r *run) fail(err error) State {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.err = err
	case IsTransportFailure(err):
		r.err = err
	default:
		r.err = fmt.Errorf("%w: %v", ErrTransport, err)
	}
	r.log.WithError(r.err).WithField("state", r.state).Warn("classification failed")
	return StateTerminal
}
