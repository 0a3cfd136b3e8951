// Package reminder sends push reminders to operators shortly before their
// appointments start.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/studiofisyo/ledger/internal/push"
	"github.com/studiofisyo/ledger/pkg/observability"
)

const DefaultConcurrency = 4

// Dispatcher runs one reminder batch per call to Run. It keeps no state
// between runs; the store is the only memory.
type Dispatcher struct {
	store       Store
	sender      push.Sender
	locker      Locker
	events      EventPublisher
	logger      *observability.Logger
	message     MessageConfig
	concurrency int
	now         func() time.Time
	tracer      trace.Tracer
}

type Option func(*Dispatcher)

func WithLocker(l Locker) Option {
	return func(d *Dispatcher) {
		d.locker = l
	}
}

func WithEvents(p EventPublisher) Option {
	return func(d *Dispatcher) {
		d.events = p
	}
}

func WithLogger(l *observability.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

func WithMessage(cfg MessageConfig) Option {
	return func(d *Dispatcher) {
		d.message = cfg
	}
}

// WithConcurrency bounds parallel deliveries per appointment.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(store Store, sender push.Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:       store,
		sender:      sender,
		logger:      observability.NewLogger("reminders"),
		message:     MessageConfig{Title: DefaultTitle},
		concurrency: DefaultConcurrency,
		now:         time.Now,
		tracer:      otel.Tracer("github.com/studiofisyo/ledger/internal/reminder"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run processes every appointment currently inside the lookahead window.
// Only a failure to fetch the batch is returned as an error; per-appointment
// and per-subscription failures are reported in the summary.
func (d *Dispatcher) Run(ctx context.Context) (*Summary, error) {
	timer := prometheus.NewTimer(dispatchDuration)
	defer timer.ObserveDuration()

	runID := uuid.NewString()
	ctx, span := d.tracer.Start(ctx, "reminder.dispatch", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()
	log := d.logger.WithContext(ctx).With("run_id", runID)

	if d.locker != nil {
		release, ok, err := d.locker.Acquire(ctx, runID)
		switch {
		case err != nil:
			// claims still keep appointments from being handled twice
			log.Warn("Dispatch lock unavailable, continuing without it", "error", err)
		case !ok:
			dispatchRuns.WithLabelValues("locked").Inc()
			log.Info("Another dispatch run holds the lock")
			return &Summary{Message: MsgInProgress}, nil
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					log.Warn("Failed to release dispatch lock", "error", err)
				}
			}()
		}
	}

	now := d.now()
	window := NewWindow(now)
	appts, err := d.store.EligibleAppointments(ctx, window)
	if err != nil {
		dispatchRuns.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch eligible appointments")
		log.Error("Failed to fetch eligible appointments", "error", err)
		return nil, fmt.Errorf("fetch eligible appointments: %w", err)
	}

	if len(appts) == 0 {
		dispatchRuns.WithLabelValues("empty").Inc()
		return &Summary{Message: MsgNoAppointments}, nil
	}

	summary := &Summary{Results: make([]Result, 0, len(appts))}
	for _, appt := range appts {
		results, handled := d.dispatchAppointment(ctx, runID, appt, now)
		if handled {
			summary.Processed++
		}
		summary.Results = append(summary.Results, results...)
	}

	dispatchRuns.WithLabelValues("completed").Inc()
	span.SetAttributes(attribute.Int("processed", summary.Processed))
	log.Info("Dispatch run finished", "eligible", len(appts), "processed", summary.Processed, "results", len(summary.Results))
	return summary, nil
}

// dispatchAppointment claims the appointment, then attempts delivery once per
// device of its operator. handled is false when the appointment never reached
// the delivery stage.
func (d *Dispatcher) dispatchAppointment(ctx context.Context, runID string, appt Appointment, now time.Time) (results []Result, handled bool) {
	ctx, span := d.tracer.Start(ctx, "reminder.appointment", trace.WithAttributes(attribute.String("appointment_id", appt.ID)))
	defer span.End()
	log := d.logger.WithContext(ctx).With("run_id", runID, "appointment_id", appt.ID)

	claimed, err := d.store.ClaimReminder(ctx, appt.ID)
	if err != nil {
		span.RecordError(err)
		log.Error("Failed to claim appointment", "error", err)
		return []Result{{Appointment: appt.ID, Error: fmt.Sprintf("claim reminder: %v", err)}}, false
	}
	if !claimed {
		log.Info("Appointment already claimed by another run")
		return nil, false
	}

	subs, err := d.store.SubscriptionsByAccount(ctx, appt.OperatorAccountID)
	if err != nil {
		span.RecordError(err)
		log.Error("Failed to look up operator subscriptions", "operator_id", appt.OperatorID, "error", err)
		// leave the appointment unmarked so the next tick retries it
		if rerr := d.store.ReleaseReminder(context.WithoutCancel(ctx), appt.ID); rerr != nil {
			log.Error("Failed to release appointment claim", "error", rerr)
		}
		return []Result{{Appointment: appt.ID, Error: fmt.Sprintf("subscription lookup: %v", err)}}, false
	}

	if len(subs) == 0 {
		log.Info("Operator has no push subscriptions", "operator_id", appt.OperatorID)
		d.publish(ctx, log, runID, appt, nil)
		return nil, true
	}

	payload, err := BuildNotification(d.message, appt, now).Marshal()
	if err != nil {
		log.Error("Failed to encode notification", "error", err)
		payload = []byte(`{"title":"` + DefaultTitle + `"}`)
	}

	results = make([]Result, len(subs))
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, sub := range subs {
		g.Go(func() error {
			results[i] = d.deliver(ctx, log, appt, sub, payload)
			return nil
		})
	}
	_ = g.Wait()

	d.publish(ctx, log, runID, appt, results)
	return results, true
}

func (d *Dispatcher) deliver(ctx context.Context, log *observability.Logger, appt Appointment, sub push.Subscription, payload []byte) Result {
	res := Result{Appointment: appt.ID, Subscription: sub.ID}
	log = log.With("subscription_id", sub.ID)

	err := d.sender.Send(ctx, sub, payload)
	if err == nil {
		deliveries.WithLabelValues("sent").Inc()
		res.Success = true
		return res
	}
	res.Error = err.Error()

	if !push.IsGone(err) {
		deliveries.WithLabelValues("failed").Inc()
		log.Warn("Push delivery failed", "error", err)
		return res
	}

	deliveries.WithLabelValues("gone").Inc()
	if derr := d.store.DeleteSubscription(ctx, sub.ID); derr != nil {
		log.Error("Failed to delete dead subscription", "error", derr)
		return res
	}
	subscriptionsPruned.Inc()
	res.Pruned = true
	log.Info("Deleted dead subscription", "error", err)
	return res
}

func (d *Dispatcher) publish(ctx context.Context, log *observability.Logger, runID string, appt Appointment, results []Result) {
	if d.events == nil {
		return
	}
	body, err := newDispatchedEvent(runID, appt, results, d.now()).Marshal()
	if err != nil {
		log.Error("Failed to encode dispatch event", "error", err)
		return
	}
	if err := d.events.Publish(ctx, appt.ID, body); err != nil {
		log.Warn("Failed to publish dispatch event", "error", err)
	}
}
