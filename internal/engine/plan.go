package engine

import (
	"fmt"
	"time"

	"github.com/shaiso/Harvest/internal/capability"
)

// TransitionKind — как выполняется переход.
type TransitionKind string

const (
	// KindStep — Session.RunStep.
	KindStep TransitionKind = "step"

	// KindDownload — Session.AwaitDownload.
	KindDownload TransitionKind = "download"

	// KindVerify — локальная проверка export-файла.
	KindVerify TransitionKind = "verify"
)

// Transition — один переход попытки.
type Transition struct {
	// To — состояние после успешного перехода.
	To   State
	Kind TransitionKind
	Step capability.Step
}

// Target — адрес инструмента и селекторы его элементов.
type Target struct {
	ToolURL         string `yaml:"tool_url"`
	InputSelector   string `yaml:"input_selector"`
	SearchSelector  string `yaml:"search_selector"`
	ResultsSelector string `yaml:"results_selector"`
	ExportSelector  string `yaml:"export_selector"`
	FormatSelector  string `yaml:"format_selector"`

	// StepTimeout — бюджет обычного шага.
	StepTimeout time.Duration `yaml:"step_timeout"`

	// ResultsTimeout — бюджет ожидания результатов (default: 2 × StepTimeout).
	ResultsTimeout time.Duration `yaml:"results_timeout"`
}

// DefaultTarget возвращает Target для Cerebro.
func DefaultTarget() Target {
	return Target{
		ToolURL:         "https://members.helium10.com/cerebro",
		InputSelector:   ".dAElQY",
		SearchSelector:  `#CerebroSearchButtons button[data-testid="getkeywords"]`,
		ResultsSelector: `button[data-testid="exportdata"]`,
		ExportSelector:  `button[data-testid="exportdata"]`,
		FormatSelector:  `div[data-testid="csv"]`,
		StepTimeout:     capability.DefaultStepTimeout,
	}
}

// WithDefaults заполняет пустые поля значениями DefaultTarget.
func (t Target) WithDefaults() Target {
	d := DefaultTarget()
	if t.ToolURL == "" {
		t.ToolURL = d.ToolURL
	}
	if t.InputSelector == "" {
		t.InputSelector = d.InputSelector
	}
	if t.SearchSelector == "" {
		t.SearchSelector = d.SearchSelector
	}
	if t.ResultsSelector == "" {
		t.ResultsSelector = d.ResultsSelector
	}
	if t.ExportSelector == "" {
		t.ExportSelector = d.ExportSelector
	}
	if t.FormatSelector == "" {
		t.FormatSelector = d.FormatSelector
	}
	if t.StepTimeout <= 0 {
		t.StepTimeout = d.StepTimeout
	}
	if t.ResultsTimeout <= 0 {
		t.ResultsTimeout = 2 * t.StepTimeout
	}
	return t
}

// Plan возвращает переходы одной попытки для item.
func Plan(t Target, item string) []Transition {
	t = t.WithDefaults()

	return []Transition{
		{To: StateNavigating, Kind: KindStep, Step: capability.Step{
			Name: "navigate", Action: capability.ActionNavigate, URL: t.ToolURL, Value: item, Timeout: t.StepTimeout,
		}},
		{To: StateInputEntered, Kind: KindStep, Step: capability.Step{
			Name: "enter_input", Action: capability.ActionFill, Selector: t.InputSelector, Value: item, Timeout: t.StepTimeout,
		}},
		{To: StateSearchTriggered, Kind: KindStep, Step: capability.Step{
			Name: "trigger_search", Action: capability.ActionClick, Selector: t.SearchSelector, Timeout: t.StepTimeout,
		}},
		{To: StateResultsReady, Kind: KindStep, Step: capability.Step{
			Name: "await_results", Action: capability.ActionWait, Selector: t.ResultsSelector, Timeout: t.ResultsTimeout,
		}},
		{To: StateExportTriggered, Kind: KindStep, Step: capability.Step{
			Name: "trigger_export", Action: capability.ActionClick, Selector: t.ExportSelector, Timeout: t.StepTimeout,
		}},
		{To: StateFormatSelected, Kind: KindStep, Step: capability.Step{
			Name: "select_format", Action: capability.ActionWait, Selector: t.FormatSelector, Timeout: t.StepTimeout,
		}},
		{To: StateDownloading, Kind: KindDownload, Step: capability.Step{
			Name: "download", Action: capability.ActionClick, Selector: t.FormatSelector, Timeout: t.StepTimeout,
		}},
		{To: StateVerified, Kind: KindVerify, Step: capability.Step{
			Name: "verify",
		}},
	}
}

// ValidatePlan проверяет, что переходы идут строго по Next от StateStart.
func ValidatePlan(plan []Transition) error {
	state := StateStart
	for i, tr := range plan {
		if next := Next(state); next != tr.To {
			return fmt.Errorf("%w: transition %d goes to %s, expected %s", ErrInvalidPlan, i, tr.To, next)
		}
		state = tr.To
	}
	if state != StateVerified {
		return fmt.Errorf("%w: plan ends in %s", ErrInvalidPlan, state)
	}
	return nil
}
