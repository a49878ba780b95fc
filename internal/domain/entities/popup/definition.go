// Package popup provides domain entities for popup campaign definitions.
// A Definition bundles targeting rules, a trigger rule, and the content
// template the storefront runtime renders.
package popup

import (
	"fmt"
)

// PopupType discriminates single-form popups from multi-step flows.
type PopupType string

const (
	TypeSingleStep PopupType = "single_step"
	TypeMultiStep  PopupType = "multi_step"
)

// TriggerType selects the activation condition for a definition.
type TriggerType string

const (
	TriggerDelay  TriggerType = "delay"  // TriggerValue is seconds from setup
	TriggerScroll TriggerType = "scroll" // TriggerValue is a 0-100 scroll percentage
	TriggerExit   TriggerType = "exit"   // TriggerValue is unused
)

// StepType tags one stage of a multi-step flow.
type StepType string

const (
	StepQuiz     StepType = "quiz"
	StepEmail    StepType = "email"
	StepDiscount StepType = "discount"
	StepThankYou StepType = "thankyou"
)

// Theme carries free-form color hints applied by the presentation layer.
type Theme struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	ButtonColor     string `json:"buttonColor,omitempty"`
}

// Step is one stage of a multi-step definition.
type Step struct {
	ID          string   `json:"id,omitempty"`
	Type        StepType `json:"type"`
	Order       int      `json:"order"`
	Question    string   `json:"question,omitempty"`
	Options     []string `json:"options,omitempty"`
	MultiSelect bool     `json:"multiSelect,omitempty"`
	Required    bool     `json:"required,omitempty"`
	AutoAdvance bool     `json:"autoAdvance,omitempty"`
	Heading     string   `json:"heading,omitempty"`
	Description string   `json:"description,omitempty"`
	ButtonText  string   `json:"buttonText,omitempty"`
}

// Definition is a popup campaign: content plus targeting plus a trigger rule.
// The JSON shape matches the popup-config wire format.
type Definition struct {
	ID                 string      `json:"id"`
	PopupType          PopupType   `json:"popupType"`
	TriggerType        TriggerType `json:"triggerType"`
	TriggerValue       float64     `json:"triggerValue"`
	Heading            string      `json:"heading"`
	Description        string      `json:"description,omitempty"`
	ButtonText         string      `json:"buttonText"`
	DiscountCode       string      `json:"discountCode,omitempty"`
	Position           string      `json:"position,omitempty"`
	TargetPages        []string    `json:"targetPages,omitempty"`
	TargetDevices      []string    `json:"targetDevices,omitempty"`
	RepeatInSession    bool        `json:"repeatInSession"`
	MaxViewsPerSession int         `json:"maxViewsPerSession"`
	Steps              []Step      `json:"steps,omitempty"`
	Theme              Theme       `json:"theme,omitempty"`
}

// Validate checks the structural invariants of a definition. Definitions
// failing validation are skipped at load time rather than armed.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("definition has no id")
	}

	if d.TriggerValue < 0 {
		return fmt.Errorf("definition %s: trigger value must be non-negative, got %v", d.ID, d.TriggerValue)
	}
	if d.TriggerType == TriggerScroll && d.TriggerValue > 100 {
		return fmt.Errorf("definition %s: scroll trigger value must be a 0-100 percentage, got %v", d.ID, d.TriggerValue)
	}

	switch d.TriggerType {
	case TriggerDelay, TriggerScroll, TriggerExit:
	default:
		return fmt.Errorf("definition %s: unknown trigger type %q", d.ID, d.TriggerType)
	}

	// With repeat disabled the view cap is the only thing letting the popup
	// show at all; a zero cap would silently filter it everywhere.
	if !d.RepeatInSession && d.MaxViewsPerSession < 1 {
		return fmt.Errorf("definition %s: max views per session must be at least 1 when repeat is disabled", d.ID)
	}

	for i := range d.Steps {
		step := &d.Steps[i]
		if step.Type == StepQuiz {
			if len(step.Options) < 2 || len(step.Options) > 6 {
				return fmt.Errorf("definition %s: quiz step %d must have 2-6 options, got %d", d.ID, i, len(step.Options))
			}
		}
	}

	return nil
}

// MatchesDevice reports whether the definition targets the given device
// class. An empty target list matches all devices.
func (d *Definition) MatchesDevice(device string) bool {
	if len(d.TargetDevices) == 0 {
		return true
	}
	for _, target := range d.TargetDevices {
		if target == device {
			return true
		}
	}
	return false
}

// MatchesPage reports whether the definition targets the given page class.
// An empty target list matches all pages.
func (d *Definition) MatchesPage(page string) bool {
	if len(d.TargetPages) == 0 {
		return true
	}
	for _, target := range d.TargetPages {
		if target == page {
			return true
		}
	}
	return false
}

// PassesSessionRule applies the re-display rule: with repeat enabled a
// definition always passes; otherwise the per-session view count must be
// strictly below the cap.
func (d *Definition) PassesSessionRule(viewCount int) bool {
	if d.RepeatInSession {
		return true
	}
	return viewCount < d.MaxViewsPerSession
}

// StepAt returns the step at the given index, or nil when the index is
// beyond the configured steps (the flow then falls back to email capture).
func (d *Definition) StepAt(index int) *Step {
	if index < 0 || index >= len(d.Steps) {
		return nil
	}
	return &d.Steps[index]
}
