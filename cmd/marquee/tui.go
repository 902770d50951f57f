package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/marquee/internal/domain"
	"github.com/mmcdole/marquee/internal/tui"
)

// updateBuffer absorbs bursts of view updates between program reads
const updateBuffer = 64

func runTUI(ctx context.Context, a *app) error {
	engine, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	a.watchConfig()

	updates := make(chan domain.ViewUpdate, updateBuffer)
	unobserve := engine.Observe(tui.NewChannelObserver(updates))
	defer unobserve()

	model := tui.NewModel(engine, a.history, a.filters, updates).SelectView(a.defaultView())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	a.logger.Info("starting TUI", "version", version)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	a.logger.Info("shutting down")
	return nil
}
