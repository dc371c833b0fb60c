package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/events"
	"github.com/alexisbeaulieu97/peakflow/internal/logger"
	"github.com/alexisbeaulieu97/peakflow/internal/ports"
	peakerrors "github.com/alexisbeaulieu97/peakflow/pkg/errors"
)

// Processor executes one run of same-kind commands against the selected
// entities of a session.
type Processor interface {
	Run(ctx context.Context, run Run, names []string, session *workflow.Session) error
}

// EntityProcessor applies every command of a run to each selected entity in
// turn and reports lifecycle notifications to its observer. With Parallel
// above one, entities are processed concurrently by a bounded worker pool.
type EntityProcessor struct {
	Kind     workflow.EntityKind
	Parallel int
	Observer events.Observer
	Logger   *logger.Logger
	Metrics  ports.MetricsCollector
}

// NewInjectionProcessor creates a processor for injections that runs up to
// parallel entities at once.
func NewInjectionProcessor(observer events.Observer, log *logger.Logger, parallel int) *EntityProcessor {
	return &EntityProcessor{Kind: workflow.Injection, Parallel: parallel, Observer: observer, Logger: log}
}

// NewSegmentProcessor creates a sequential processor for sequence segments.
func NewSegmentProcessor(observer events.Observer, log *logger.Logger) *EntityProcessor {
	return &EntityProcessor{Kind: workflow.Segment, Parallel: 1, Observer: observer, Logger: log}
}

// NewGroupProcessor creates a sequential processor for sample groups.
func NewGroupProcessor(observer events.Observer, log *logger.Logger) *EntityProcessor {
	return &EntityProcessor{Kind: workflow.Group, Parallel: 1, Observer: observer, Logger: log}
}

// Run executes the run. Commands are announced before the batch starts and
// only reported as ended when every entity succeeded. The first failure is
// returned as an ExecutionError.
func (p *EntityProcessor) Run(ctx context.Context, run Run, names []string, session *workflow.Session) error {
	if session == nil {
		return peakerrors.NewExecutionError("", "", fmt.Errorf("session is nil"))
	}
	if run.Kind != p.Kind {
		return peakerrors.NewExecutionError("", "", fmt.Errorf("%s processor cannot run %s commands", p.Kind, run.Kind))
	}

	log := p.Logger.WithFields(map[string]any{"component": "processor", "kind": p.Kind.String()})
	observer := p.observer()

	entities, missing := session.Select(p.Kind, names)
	for _, name := range missing {
		log.With("entity", name).Warn("selected entity not found; skipping")
	}

	params := make([]workflow.Parameters, len(run.Commands))
	for j, cmd := range run.Commands {
		resolved, ignored, err := cmd.Method.Schema().Resolve(session.Parameters[cmd.Name()])
		if err != nil {
			return peakerrors.NewExecutionError("", cmd.Name(), err)
		}
		for _, name := range ignored {
			log.WithFields(map[string]any{"method": cmd.Name(), "parameter": name}).Warn("parameter not declared by method; ignoring")
		}
		params[j] = resolved
	}

	for j, cmd := range run.Commands {
		observer.CommandStarted(run.Start+j, cmd.Name())
	}
	observer.BatchStarted(p.Kind, len(entities))

	var err error
	if p.Parallel > 1 && len(entities) > 1 {
		err = p.runParallel(ctx, run, params, entities)
	} else {
		for _, entity := range entities {
			if err = p.processEntity(ctx, run, params, entity); err != nil {
				break
			}
		}
	}

	observer.BatchEnded(p.Kind)
	if err != nil {
		return err
	}

	for j, cmd := range run.Commands {
		observer.CommandEnded(run.Start+j, cmd.Name())
	}
	log.WithFields(map[string]any{"commands": len(run.Commands), "entities": len(entities)}).Debug("run completed")
	return nil
}

func (p *EntityProcessor) runParallel(ctx context.Context, run Run, params []workflow.Parameters, entities []*workflow.Entity) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := make(chan struct{}, p.Parallel)
	var firstErr error
	var once sync.Once
	var wg sync.WaitGroup

	for _, entity := range entities {
		wg.Add(1)
		go func(entity *workflow.Entity) {
			defer wg.Done()

			select {
			case pool <- struct{}{}:
				defer func() { <-pool }()
			case <-ctx.Done():
				return
			}
			if ctx.Err() != nil {
				return
			}

			if err := p.processEntity(ctx, run, params, entity); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(entity)
	}

	wg.Wait()
	return firstErr
}

func (p *EntityProcessor) processEntity(ctx context.Context, run Run, params []workflow.Parameters, entity *workflow.Entity) error {
	observer := p.observer()
	observer.ItemStarted(p.Kind, entity.Name)

	overrides := run.Overrides[entity.Name]
	for j, cmd := range run.Commands {
		if err := execute(ctx, cmd.Method, entity, params[j], overrides); err != nil {
			p.metrics().IncCounter(ctx, ports.MetricEntitiesProcessed, map[string]string{"kind": p.Kind.String(), "status": "failure"})
			return peakerrors.NewExecutionError(entity.Name, cmd.Name(), err)
		}
	}

	p.metrics().IncCounter(ctx, ports.MetricEntitiesProcessed, map[string]string{"kind": p.Kind.String(), "status": "success"})
	observer.ItemEnded(p.Kind, entity.Name)
	return nil
}

// execute calls the method and converts a panic into an error.
func execute(ctx context.Context, method workflow.Method, entity *workflow.Entity, params workflow.Parameters, overrides workflow.Overrides) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return method.Execute(ctx, entity, params, overrides)
}

func (p *EntityProcessor) observer() events.Observer {
	if p.Observer == nil {
		return events.NopObserver{}
	}
	return p.Observer
}

func (p *EntityProcessor) metrics() ports.MetricsCollector {
	if p.Metrics == nil {
		return ports.NopMetrics{}
	}
	return p.Metrics
}
