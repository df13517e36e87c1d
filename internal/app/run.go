package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/specialistvlad/flowcore/internal/codec"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/hcl"
	"github.com/specialistvlad/flowcore/internal/nodeid"
	"github.com/specialistvlad/flowcore/internal/notify"
	"github.com/specialistvlad/flowcore/internal/notify/socketio"
	"github.com/specialistvlad/flowcore/internal/session"
)

// trigger is a parsed --trigger argument. input is -1 for a whole-node
// update.
type trigger struct {
	node  nodeid.ID
	input int
}

func parseTrigger(raw string) (trigger, error) {
	if !strings.Contains(raw, ".") {
		id, err := nodeid.ParseNode(raw)
		if err != nil {
			return trigger{}, fmt.Errorf("invalid trigger %q: %w", raw, err)
		}
		return trigger{node: id, input: -1}, nil
	}
	ref, err := nodeid.Parse(raw)
	if err != nil {
		return trigger{}, fmt.Errorf("invalid trigger %q: %w", raw, err)
	}
	if ref.Dir != nodeid.In {
		return trigger{}, fmt.Errorf("invalid trigger %q: only inputs can be triggered", raw)
	}
	return trigger{node: ref.Node, input: ref.Index}, nil
}

// Run loads the project, runs the selected flow and saves the result.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		if _, err := a.startHealthcheckServer(a.config.HealthcheckPort); err != nil {
			return err
		}
		defer a.closeHealthcheckServer()
	}

	sinks := notify.Multi{notify.Logger{Level: slog.LevelDebug}}
	if a.config.NotifyURL != "" {
		sio, err := socketio.Dial(ctx, socketio.Config{URL: a.config.NotifyURL})
		if err != nil {
			return fmt.Errorf("failed to connect notification sink: %w", err)
		}
		defer sio.Close()
		sinks = append(sinks, sio)
	}

	s, err := session.New(ctx, session.WithSink(sinks), session.WithModules(a.modules...))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	a.session = s
	a.logger.Debug("Node types registered.", "count", len(s.Registry().Types()))

	if err := a.loadProject(ctx); err != nil {
		return err
	}

	name := a.config.Flow
	if name == "" {
		flows := s.Flows()
		if len(flows) == 0 {
			return errors.New("project has no flows")
		}
		name = flows[0]
	}
	if _, ok := s.Flow(name); !ok {
		return fmt.Errorf("flow %q not found in project", name)
	}

	s.Start(ctx)
	defer s.Stop()

	a.logger.Info("🚀 Running flow.", "flow", name, "triggers", len(a.config.Triggers))
	runErr := s.Do(ctx, name, func(ctx context.Context, f *flow.Flow) error {
		return a.execute(ctx, f)
	})
	if runErr != nil {
		a.logger.Error("Flow reported errors.", "flow", name, ctxlog.ErrAttr(runErr))
	} else {
		a.logger.Info("🏁 Flow finished.", "flow", name)
	}

	if a.config.OutPath != "" {
		if err := a.save(ctx); err != nil {
			return errors.Join(runErr, err)
		}
	}
	a.logger.Debug("App.Run method finished.")
	return runErr
}

// execute applies the variable assignments and then the triggers, in the
// order given. Faults are collected so that every trigger runs.
func (a *App) execute(ctx context.Context, f *flow.Flow) error {
	conv := a.session.Converter()
	var errs []error

	for _, as := range a.config.Sets {
		v, err := conv.FromCtyValue(hcl.ParseValue(as.Expr))
		if err != nil {
			return fmt.Errorf("variable %q: %w", as.Name, err)
		}
		if err := f.SetVar(ctx, as.Name, v); err != nil {
			errs = append(errs, err)
		}
	}

	for _, raw := range a.config.Triggers {
		tr, err := parseTrigger(raw)
		if err != nil {
			return err
		}
		n, ok := f.Node(tr.node)
		if !ok {
			errs = append(errs, fmt.Errorf("trigger %s: %w", raw, flow.ErrNodeNotFound))
			continue
		}
		a.logger.Debug("Triggering node.", ctxlog.NodeAttr(int(n.ID()), n.Type().ID), "input", tr.input)
		if err := f.Trigger(ctx, n, tr.input); err != nil {
			errs = append(errs, fmt.Errorf("trigger %s: %w", raw, err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) save(ctx context.Context) error {
	p, err := a.session.Serialize(ctx)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := codec.WriteFile(a.config.OutPath, p); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.config.OutPath, err)
	}
	a.logger.Info("Snapshot written.", "path", a.config.OutPath)
	return nil
}
