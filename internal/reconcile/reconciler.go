package reconcile

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophsync/internal/dbx"
	"github.com/dmitrijs2005/gophsync/internal/logging"
)

// ChildTask reconciles one child collection nested in parent DTOs of type PD.
// Implementations hide their own child types, so a Reconciler can hold tasks
// for differently typed children.
type ChildTask[PK comparable, PD Record[PK], PE Entity[PK]] interface {
	TaskName() string
	Run(ctx context.Context, parents []PD, resolved map[PK]PE, tx dbx.DBTX) (TaskReport, error)
}

// Option customizes a Reconciler.
type Option func(*options)

type options struct {
	logger logging.Logger
}

// WithLogger sets the logger used for per-pass summaries.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Reconciler runs a parent pass and its registered child tasks inside one
// unit of work.
type Reconciler[K comparable, D Record[K], E Entity[K]] struct {
	name   string
	uow    UnitOfWork
	bind   func(tx dbx.DBTX) Pass[K, D, E]
	tasks  []ChildTask[K, D, E]
	logger logging.Logger
}

// NewReconciler builds a Reconciler. bind is called once per Reconcile call
// with the unit-of-work handle and must return a pass whose store uses it.
func NewReconciler[K comparable, D Record[K], E Entity[K]](name string, uow UnitOfWork,
	bind func(tx dbx.DBTX) Pass[K, D, E], opts ...Option) *Reconciler[K, D, E] {

	o := options{logger: logging.NewDiscardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Reconciler[K, D, E]{
		name:   name,
		uow:    uow,
		bind:   bind,
		logger: o.logger.With("collection", name),
	}
}

// Register appends child tasks. They run in registration order.
func (r *Reconciler[K, D, E]) Register(tasks ...ChildTask[K, D, E]) *Reconciler[K, D, E] {
	r.tasks = append(r.tasks, tasks...)
	return r
}

// Reconcile converges the store onto dtos. Parents are upserted and swept
// first; child tasks then receive every parent resolved for a DTO identity.
// Either everything commits or nothing does.
func (r *Reconciler[K, D, E]) Reconcile(ctx context.Context, dtos []D) (Result[K], error) {
	var res Result[K]

	err := r.uow.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		res = Result[K]{}

		sum, resolved, err := Run(ctx, r.bind(tx), dtos)
		if err != nil {
			return fmt.Errorf("%s: %w", r.name, err)
		}
		res.Summary = sum

		for _, t := range r.tasks {
			rep, err := t.Run(ctx, dtos, resolved, tx)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", r.name, t.TaskName(), err)
			}
			res.Children = append(res.Children, rep)
		}
		return nil
	})
	if err != nil {
		r.logger.Error(ctx, "reconciliation rolled back", "error", err)
		return Result[K]{}, err
	}

	r.logger.Info(ctx, "reconciliation committed",
		"touched", len(res.Touched), "inserted", res.Inserted,
		"updated", res.Updated, "deleted", res.Deleted)
	for _, c := range res.Children {
		r.logTask(ctx, c)
	}

	return res, nil
}

func (r *Reconciler[K, D, E]) logTask(ctx context.Context, rep TaskReport) {
	r.logger.Debug(ctx, "child task",
		"task", rep.Name, "touched", rep.Touched, "inserted", rep.Inserted,
		"updated", rep.Updated, "deleted", rep.Deleted, "skipped", rep.Skipped)
	for _, c := range rep.Children {
		r.logTask(ctx, c)
	}
}
