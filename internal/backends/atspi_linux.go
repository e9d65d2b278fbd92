//go:build linux

// Package backends implements one injector per platform delivery method
// behind the inject.Injector contract.
package backends

import (
	"context"
	"errors"

	"scrivo/internal/atspi"
	"scrivo/internal/inject"
)

const remediationA11y = "enable the accessibility bus (org.a11y.Bus) and restart the target application"

// AtspiInsertInjector inserts text at the caret of the focused editable
// widget through the accessibility bus.
type AtspiInsertInjector struct {
	client *atspi.Client
}

// NewAtspiInsertInjector wires the injector over an accessibility client.
func NewAtspiInsertInjector(client *atspi.Client) *AtspiInsertInjector {
	return &AtspiInsertInjector{client: client}
}

func (i *AtspiInsertInjector) Method() inject.Method { return inject.AtspiInsert }

// Remediation names the user action for fatal failures of this method.
func (i *AtspiInsertInjector) Remediation() string { return remediationA11y }

func (i *AtspiInsertInjector) Attempt(ctx context.Context, text string, _ *inject.Context) *inject.AttemptError {
	acc, err := i.client.FocusedEditable(ctx)
	if err != nil {
		return classifyAtspi(err)
	}
	if err := i.client.InsertText(ctx, acc, text); err != nil {
		return inject.Transientf("atspi insert: %v", err)
	}
	return nil
}

// AtspiPasteInjector pastes the (already seeded) clipboard at the caret
// of the focused editable widget.
type AtspiPasteInjector struct {
	client *atspi.Client
}

// NewAtspiPasteInjector wires the injector over an accessibility client.
func NewAtspiPasteInjector(client *atspi.Client) *AtspiPasteInjector {
	return &AtspiPasteInjector{client: client}
}

func (i *AtspiPasteInjector) Method() inject.Method { return inject.AtspiPaste }

// Remediation names the user action for fatal failures of this method.
func (i *AtspiPasteInjector) Remediation() string { return remediationA11y }

func (i *AtspiPasteInjector) Attempt(ctx context.Context, _ string, _ *inject.Context) *inject.AttemptError {
	acc, err := i.client.FocusedEditable(ctx)
	if err != nil {
		return classifyAtspi(err)
	}
	if err := i.client.PasteText(ctx, acc); err != nil {
		return inject.Transientf("atspi paste: %v", err)
	}
	return nil
}

// classifyAtspi maps focused-widget lookup failures: a missing editable
// widget is a timing issue worth retrying, a dead bus is fatal.
func classifyAtspi(err error) *inject.AttemptError {
	if errors.Is(err, atspi.ErrNoFocusedEditable) {
		return inject.Transientf("no focused editable widget: %v", err)
	}
	return inject.Fatal(err, remediationA11y)
}
