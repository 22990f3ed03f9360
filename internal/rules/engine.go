package rules

import "authwatch/pkg/models"

// Engine applies detection rules to auth events.
type Engine interface {
	Apply(event *models.AuthEvent) []models.RuleTag
}

// NoopEngine returns no tags.
type NoopEngine struct{}

// Apply returns an empty tag list.
func (n *NoopEngine) Apply(event *models.AuthEvent) []models.RuleTag {
	return nil
}
