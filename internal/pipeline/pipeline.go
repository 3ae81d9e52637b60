// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives a research run through its states in a fixed
// order: Clarifying, Decomposing, Strategizing, Researching, FactChecking,
// Synthesizing, Reviewing, Done. There is no failure state. A stage that
// fails has its error recorded under diagnostics/ and the driver moves on.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/research"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// State is a pipeline state.
type State string

const (
	Clarifying   State = "clarifying"
	Decomposing  State = "decomposing"
	Strategizing State = "strategizing"
	Researching  State = "researching"
	FactChecking State = "fact_checking"
	Synthesizing State = "synthesizing"
	Reviewing    State = "reviewing"
	Done         State = "done"
)

// States lists every state in execution order, ending with Done.
var States = []State{Clarifying, Decomposing, Strategizing, Researching, FactChecking, Synthesizing, Reviewing, Done}

// Stage is a sequential step that reads and writes the store in place.
type Stage interface {
	Run(ctx context.Context, store *vfs.Store) error
}

// StageFunc adapts a function to Stage.
type StageFunc func(ctx context.Context, store *vfs.Store) error

// Run calls f.
func (f StageFunc) Run(ctx context.Context, store *vfs.Store) error { return f(ctx, store) }

// Researcher is the fan-out/fan-in step. It returns a new store rather than
// writing to its input.
type Researcher interface {
	Research(ctx context.Context, store *vfs.Store) (*vfs.Store, research.Report)
}

// Phase marks the start or end of a state.
type Phase string

const (
	PhaseStarted  Phase = "started"
	PhaseFinished Phase = "finished"
)

// Event reports progress to an Observer.
type Event struct {
	RunID    string
	State    State
	Phase    Phase
	Err      error
	Duration time.Duration

	// Files is the store size after the state finished.
	Files int
}

// Observer receives events synchronously from the driver goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f.
func (f ObserverFunc) Observe(e Event) { f(e) }

// Driver runs the states in order over one store.
type Driver struct {
	Clarify    Stage
	Decompose  Stage
	Strategize Stage
	Research   Researcher
	FactCheck  Stage
	Synthesize Stage
	Review     Stage

	Observer Observer
	Logger   *zap.Logger

	// NewRunID returns the id recorded in run_manifest.json.
	NewRunID func() string
}

// Result is the outcome of a run.
type Result struct {
	Store    *vfs.Store
	Manifest types.RunManifest
	Research research.Report
}

// Run executes every state for query and returns the final store. It
// returns an error only when ctx ends; stage failures are recorded in the
// store and the manifest.
func (d *Driver) Run(ctx context.Context, query string) (Result, error) {
	store := vfs.New()
	store.Put(vfs.OriginalQueryFile, strings.TrimSpace(query)+"\n")
	return d.RunStore(ctx, store)
}

// RunStore executes every state over an existing store. The store must hold
// original_query.md; a missing query flows through as insufficient input.
func (d *Driver) RunStore(ctx context.Context, store *vfs.Store) (Result, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	if d.NewRunID != nil {
		runID = d.NewRunID()
	}
	logger = logger.With(zap.String("run_id", runID))

	res := Result{
		Store: store,
		Manifest: types.RunManifest{
			RunID:   runID,
			Query:   strings.TrimSpace(store.Get(vfs.OriginalQueryFile, "")),
			Started: time.Now().UTC(),
		},
	}

	for _, state := range States {
		if state == Done {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("run %s stopped before %s: %w", runID, state, err)
		}

		d.emit(Event{RunID: runID, State: state, Phase: PhaseStarted})
		started := time.Now()
		err := d.runState(ctx, state, &res)
		elapsed := time.Since(started)

		timing := types.StateTiming{State: string(state), Started: started.UTC(), Duration: elapsed}
		if err != nil {
			timing.Error = err.Error()
			logger.Warn("stage failed, continuing", zap.String("stage", string(state)), zap.Error(err))
			res.Store.Put(vfs.DiagnosticPath(string(state)), diagnostic(state, err))
		} else {
			logger.Info("stage complete", zap.String("stage", string(state)), zap.Duration("duration", elapsed))
		}
		res.Manifest.States = append(res.Manifest.States, timing)
		d.emit(Event{RunID: runID, State: state, Phase: PhaseFinished, Err: err, Duration: elapsed, Files: res.Store.Len()})
	}

	res.Manifest.Finished = time.Now().UTC()
	res.Manifest.Tasks = res.Research.Tasks
	res.Manifest.FailedTasks = res.Research.Failed
	if err := res.Store.PutJSON(vfs.ManifestFile, res.Manifest); err != nil {
		logger.Warn("writing run manifest", zap.Error(err))
	}
	d.emit(Event{RunID: runID, State: Done, Phase: PhaseFinished, Files: res.Store.Len()})
	return res, nil
}

// runState runs one state, converting a panic into an error.
func (d *Driver) runState(ctx context.Context, state State, res *Result) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	if state == Researching {
		if d.Research == nil {
			return errors.New("no researcher configured")
		}
		merged, rep := d.Research.Research(ctx, res.Store)
		res.Store = merged
		res.Research = rep
		return nil
	}

	stage := d.stage(state)
	if stage == nil {
		return nil
	}
	return stage.Run(ctx, res.Store)
}

func (d *Driver) stage(state State) Stage {
	switch state {
	case Clarifying:
		return d.Clarify
	case Decomposing:
		return d.Decompose
	case Strategizing:
		return d.Strategize
	case FactChecking:
		return d.FactCheck
	case Synthesizing:
		return d.Synthesize
	case Reviewing:
		return d.Review
	}
	return nil
}

func (d *Driver) emit(e Event) {
	if d.Observer != nil {
		d.Observer.Observe(e)
	}
}

func diagnostic(state State, err error) string {
	return fmt.Sprintf("# Stage Error\n\nStage: %s\nTime: %s\n\n## Message\n%v\n",
		state, time.Now().UTC().Format(time.RFC3339), err)
}
