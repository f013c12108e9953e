package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// withServices loads the configuration, builds the services and runs fn with
// a context cancelled on SIGINT/SIGTERM. Logs go to stderr.
func withServices(fn func(ctx context.Context, svc *services) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupCommandLogger(cfg, os.Stderr)
	svc, err := initServices(cfg, logger, ephemeral)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return fn(ctx, svc)
}

// runTask shows a spinner with label while run executes, then prints its output.
func runTask(ctx context.Context, label string, run func(context.Context) (string, error)) error {
	p := tea.NewProgram(newTaskModel(ctx, label, run))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("run %s: %w", label, err)
	}

	tm, ok := m.(taskModel)
	if !ok {
		return fmt.Errorf("unexpected model type from tea program")
	}
	if tm.err != nil {
		return tm.err
	}
	return nil
}

// taskResultMsg carries the task result back to the TUI.
type taskResultMsg struct {
	output string
	err    error
}

// taskModel is a one-shot spinner around a blocking call.
type taskModel struct {
	ctx     context.Context
	label   string
	run     func(context.Context) (string, error)
	spinner spinner.Model
	output  string
	err     error
	done    bool
}

func newTaskModel(ctx context.Context, label string, run func(context.Context) (string, error)) taskModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return taskModel{
		ctx:     ctx,
		label:   label,
		run:     run,
		spinner: s,
	}
}

func (m taskModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case taskResultMsg:
		m.output = msg.output
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m taskModel) View() string {
	if m.done {
		if m.err != nil {
			// Returned to main, which prints it.
			return ""
		}
		return m.output + "\n"
	}
	return m.spinner.View() + styleDim.Render(" "+m.label) + "\n"
}

func (m taskModel) start() tea.Cmd {
	return func() tea.Msg {
		out, err := m.run(m.ctx)
		return taskResultMsg{output: out, err: err}
	}
}
