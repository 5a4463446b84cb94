package detect

import (
	"path/filepath"
	"strings"
)

// Contextual confidence adjustments. A rule's confidenceWeight is nudged by
// whether the file's type matches the contexts the rule was authored for,
// then clamped to [0,1]. The table is deliberately small and explicit.
const (
	// contextBoost applies when the file extension is one of the rule's
	// declared fileTypes.
	contextBoost = 0.05
	// contextPenalty applies when the rule declares fileTypes and the file
	// matches none of them.
	contextPenalty = -0.10
)

// contextAdjustment returns the confidence delta for a match of the given
// rule in the given file. Rules with no declared fileTypes are context-free
// and get no adjustment.
func contextAdjustment(fileID string, fileTypes []string) float64 {
	if len(fileTypes) == 0 {
		return 0
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileID)), ".")
	if ext == "" {
		return contextPenalty
	}
	for _, t := range fileTypes {
		if strings.ToLower(t) == ext {
			return contextBoost
		}
	}
	return contextPenalty
}
