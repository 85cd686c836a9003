package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/embtrace/stackgauge/guest"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateLoading modelState = iota
	stateReady
	stateRunning
	stateDone
)

type interactiveModel struct {
	err      error
	rt       wazero.Runtime
	mod      api.Module
	probe    *guest.Probe
	bar      progress.Model
	filename string
	funcName string
	opts     []guest.Option
	unused   uint32
	min      uint32
	sampled  bool
	runs     int
	state    modelState
}

type loadedMsg struct {
	err   error
	rt    wazero.Runtime
	mod   api.Module
	probe *guest.Probe
}

type runDoneMsg struct {
	err error
}

type sampleTickMsg time.Time

func newInteractiveModel(filename, funcName string, opts []guest.Option) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		funcName: funcName,
		opts:     opts,
		bar:      progress.New(progress.WithDefaultGradient()),
		state:    stateLoading,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadGuest
}

func (m *interactiveModel) loadGuest() tea.Msg {
	ctx := context.Background()

	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}

	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	cfg := wazero.NewModuleConfig().WithStartFunctions()
	mod, err := rt.InstantiateWithConfig(ctx, data, cfg)
	if err != nil {
		rt.Close(ctx)
		return loadedMsg{err: err}
	}

	probe, err := guest.Attach(mod, m.opts...)
	if err != nil {
		rt.Close(ctx)
		return loadedMsg{err: err}
	}
	if err := probe.Paint(); err != nil {
		rt.Close(ctx)
		return loadedMsg{err: err}
	}

	return loadedMsg{rt: rt, mod: mod, probe: probe}
}

func (m *interactiveModel) runGuest() tea.Msg {
	fn := m.mod.ExportedFunction(m.funcName)
	if fn == nil {
		return runDoneMsg{err: fmt.Errorf("exported function %q not found", m.funcName)}
	}

	_, err := fn.Call(context.Background())
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 0 {
		err = nil
	}
	return runDoneMsg{err: err}
}

func sampleTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return sampleTickMsg(t)
	})
}

func (m *interactiveModel) sample() {
	if m.probe == nil {
		return
	}
	n, err := m.probe.Unused()
	if err != nil {
		m.err = err
		return
	}
	m.unused = n
	if !m.sampled || n < m.min {
		m.min = n
		m.sampled = true
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.rt != nil {
				m.rt.Close(context.Background())
			}
			return m, tea.Quit

		case "r":
			if m.state == stateReady || m.state == stateDone {
				m.state = stateRunning
				return m, tea.Batch(m.runGuest, sampleTick())
			}

		case "s":
			if m.state != stateLoading {
				m.sample()
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.mod = msg.mod
		m.probe = msg.probe
		m.state = stateReady
		m.sample()

	case runDoneMsg:
		m.state = stateDone
		m.runs++
		if msg.err != nil {
			m.err = msg.err
		}
		m.sample()

	case sampleTickMsg:
		if m.state == stateRunning {
			m.sample()
			return m, sampleTick()
		}
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	s := titleStyle.Render("stackgauge") + "  " + m.filename + "\n\n"

	if m.err != nil {
		s += errorStyle.Render("Error: "+m.err.Error()) + "\n\n"
		s += helpStyle.Render("q: quit")
		return s
	}

	switch m.state {
	case stateLoading:
		return s + "Loading guest...\n"

	default:
		lo, hi := m.probe.Bounds()
		size := m.probe.Size()
		used := size - m.unused

		s += labelStyle.Render("Shadow stack: ") +
			fmt.Sprintf("[%#x, %#x)  %d bytes\n", lo, hi, size)
		s += labelStyle.Render("Unused:       ") +
			valueStyle.Render(fmt.Sprintf("%d bytes\n", m.unused))
		s += labelStyle.Render("High-water:   ") +
			fmt.Sprintf("%d bytes\n", used)
		s += labelStyle.Render("Lowest unused:") +
			fmt.Sprintf(" %d bytes\n\n", m.min)

		frac := 0.0
		if size > 0 {
			frac = float64(used) / float64(size)
		}
		s += m.bar.ViewAs(frac) + "\n\n"

		switch m.state {
		case stateRunning:
			s += fmt.Sprintf("Running %s...\n\n", m.funcName)
			s += helpStyle.Render("q: quit")
		case stateDone:
			s += fmt.Sprintf("Completed %d run(s).\n\n", m.runs)
			s += helpStyle.Render("r: run again • s: sample • q: quit")
		default:
			s += helpStyle.Render("r: run " + m.funcName + " • s: sample • q: quit")
		}
	}

	return s
}

func runInteractive(filename, funcName string, opts []guest.Option) error {
	p := tea.NewProgram(newInteractiveModel(filename, funcName, opts))
	_, err := p.Run()
	return err
}
