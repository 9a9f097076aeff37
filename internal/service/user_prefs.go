package service

import (
	"encoding/json"
	"fmt"
)

// ClueVisibility toggles clue display before and after completion.
type ClueVisibility struct {
	BeforeAchieved bool `json:"beforeAchieved"`
	AfterAchieved  bool `json:"afterAchieved"`
}

// ShowClue splits clue visibility between normal and secret achievements.
type ShowClue struct {
	NormalAchievement ClueVisibility `json:"normalAchievement"`
	SecretAchievement ClueVisibility `json:"secretAchievement"`
}

// UserPrefs is the payload of the user-prefs cookie.
type UserPrefs struct {
	ShowMissedFirst bool     `json:"showMissedFirst"`
	ShowClue        ShowClue `json:"showClue"`
}

// DefaultUserPrefs hides secret clues until completion and lists missing achievements first.
func DefaultUserPrefs() UserPrefs {
	return UserPrefs{
		ShowMissedFirst: true,
		ShowClue: ShowClue{
			NormalAchievement: ClueVisibility{BeforeAchieved: true, AfterAchieved: true},
			SecretAchievement: ClueVisibility{BeforeAchieved: false, AfterAchieved: true},
		},
	}
}

// DecodeUserPrefs merges a cookie payload over the defaults. Each group
// (showMissedFirst, normalAchievement, secretAchievement) falls back on its own.
func DecodeUserPrefs(raw string) UserPrefs {
	prefs := DefaultUserPrefs()
	if raw == "" {
		return prefs
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return prefs
	}

	var showMissedFirst bool
	if value, ok := top["showMissedFirst"]; ok && json.Unmarshal(value, &showMissedFirst) == nil {
		prefs.ShowMissedFirst = showMissedFirst
	}

	var showClue map[string]json.RawMessage
	if value, ok := top["showClue"]; !ok || json.Unmarshal(value, &showClue) != nil {
		return prefs
	}
	if visibility, ok := decodeClueVisibility(showClue["normalAchievement"]); ok {
		prefs.ShowClue.NormalAchievement = visibility
	}
	if visibility, ok := decodeClueVisibility(showClue["secretAchievement"]); ok {
		prefs.ShowClue.SecretAchievement = visibility
	}

	return prefs
}

func decodeClueVisibility(raw json.RawMessage) (ClueVisibility, bool) {
	if len(raw) == 0 {
		return ClueVisibility{}, false
	}

	var payload struct {
		BeforeAchieved *bool `json:"beforeAchieved"`
		AfterAchieved  *bool `json:"afterAchieved"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ClueVisibility{}, false
	}
	if payload.BeforeAchieved == nil || payload.AfterAchieved == nil {
		return ClueVisibility{}, false
	}

	return ClueVisibility{BeforeAchieved: *payload.BeforeAchieved, AfterAchieved: *payload.AfterAchieved}, true
}

// EncodeUserPrefs serialises the whole preference object.
func EncodeUserPrefs(prefs UserPrefs) (string, error) {
	payload, err := json.Marshal(prefs)
	if err != nil {
		return "", fmt.Errorf("encode user prefs: %w", err)
	}
	return string(payload), nil
}

// ClueVisible applies the preference matrix to one achievement.
func (p UserPrefs) ClueVisible(secret, achieved bool) bool {
	visibility := p.ShowClue.NormalAchievement
	if secret {
		visibility = p.ShowClue.SecretAchievement
	}
	if achieved {
		return visibility.AfterAchieved
	}
	return visibility.BeforeAchieved
}

// ApplyClueVisibility blanks the clues the preferences hide.
func ApplyClueVisibility(view *CategoryView, prefs UserPrefs) {
	for i := range view.Achievements {
		item := &view.Achievements[i]
		if len(item.Clue) == 0 || prefs.ClueVisible(item.IsSecret, item.Achieved()) {
			continue
		}
		item.Clue = nil
		item.ClueHTML = nil
		item.ClueHidden = true
	}
}
