package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxProfiles caps the number of profiles one cookie may hold.
	MaxProfiles = 7
	// DefaultProfileName labels the profile created on first contact.
	DefaultProfileName = "Default"

	profileStateVersion  = 2
	maxProfileNameLength = 50
)

// Profile is one named slot mapping to a completion-store session id.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SessionID string `json:"sessionId"`
	IsActive  bool   `json:"isActive"`
}

// ProfileState is the versioned payload stored in the session cookie.
type ProfileState struct {
	Version  int       `json:"version"`
	Sessions []Profile `json:"sessions"`
}

// Active returns the active profile.
func (s ProfileState) Active() (Profile, bool) {
	for _, profile := range s.Sessions {
		if profile.IsActive {
			return profile, true
		}
	}
	return Profile{}, false
}

// Find looks a profile up by its cookie-local id.
func (s ProfileState) Find(id string) (Profile, bool) {
	idx := s.index(id)
	if idx == -1 {
		return Profile{}, false
	}
	return s.Sessions[idx], true
}

func (s ProfileState) index(id string) int {
	return slices.IndexFunc(s.Sessions, func(p Profile) bool { return p.ID == id })
}

// Encode serialises the state for the cookie.
func (s ProfileState) Encode() (string, error) {
	s.Version = profileStateVersion
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode profiles: %w", err)
	}
	return string(payload), nil
}

// DecodeProfileState parses a cookie payload. Payloads without a version are
// treated as the current shape; a newer or unknown version is rejected.
func DecodeProfileState(raw string) (ProfileState, error) {
	var state ProfileState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return ProfileState{}, fmt.Errorf("decode profiles: %w", err)
	}
	if state.Version != 0 && state.Version != profileStateVersion {
		return ProfileState{}, fmt.Errorf("decode profiles: unsupported version %d", state.Version)
	}
	state.Version = profileStateVersion
	return state, nil
}

// normalize keeps exactly one active profile in a non-empty list.
func (s *ProfileState) normalize() bool {
	if len(s.Sessions) == 0 {
		return false
	}

	changed := false
	seenActive := false
	for i := range s.Sessions {
		if !s.Sessions[i].IsActive {
			continue
		}
		if seenActive {
			s.Sessions[i].IsActive = false
			changed = true
		}
		seenActive = true
	}
	if !seenActive {
		s.Sessions[0].IsActive = true
		changed = true
	}
	return changed
}

// Resolution is the outcome of reading the profile cookie at request start.
type Resolution struct {
	State ProfileState
	// Changed is set when the cookie must be written back.
	Changed bool
	// Migrated is set when a legacy single-session cookie was upgraded.
	Migrated bool
	// Discarded is set when an unreadable payload was replaced.
	Discarded bool
}

// ProfileService manages the profile list held in the session cookie.
type ProfileService struct {
	store CompletionStore
	newID func() string
}

// NewProfileService 构造 ProfileService
func NewProfileService(store CompletionStore) *ProfileService {
	return &ProfileService{store: store, newID: uuid.NewString}
}

// WithIDGenerator overrides id generation in tests.
func (s *ProfileService) WithIDGenerator(newID func() string) *ProfileService {
	if newID == nil {
		return s
	}
	s.newID = newID
	return s
}

// Resolve turns the raw cookie values into a usable profile list. A current-shape
// payload short-circuits the legacy check, so the migration runs at most once.
func (s *ProfileService) Resolve(ctx context.Context, raw, legacySessionID string) (Resolution, error) {
	var res Resolution

	if raw != "" {
		state, err := DecodeProfileState(raw)
		if err == nil && len(state.Sessions) > 0 {
			res.State = state
			res.Changed = res.State.normalize()
			return res, nil
		}
		res.Discarded = true
	}

	legacy := strings.TrimSpace(legacySessionID)
	if legacy != "" {
		sessionID := s.newID()
		if _, err := s.store.Reassign(ctx, legacy, sessionID); err != nil {
			return Resolution{}, err
		}
		res.State = ProfileState{
			Version:  profileStateVersion,
			Sessions: []Profile{{ID: s.newID(), Name: DefaultProfileName, SessionID: sessionID, IsActive: true}},
		}
		res.Changed = true
		res.Migrated = true
		return res, nil
	}

	res.State = ProfileState{
		Version:  profileStateVersion,
		Sessions: []Profile{{ID: s.newID(), Name: DefaultProfileName, SessionID: s.newID(), IsActive: true}},
	}
	res.Changed = true
	return res, nil
}

// New appends a fresh profile with its own session id.
func (s *ProfileService) New(state *ProfileState, name string) (Profile, error) {
	name, err := normalizeProfileName(name)
	if err != nil {
		return Profile{}, err
	}
	if len(state.Sessions) >= MaxProfiles {
		return Profile{}, ErrProfileLimitReached
	}

	profile := Profile{
		ID:        s.newID(),
		Name:      name,
		SessionID: s.newID(),
		IsActive:  len(state.Sessions) == 0,
	}
	state.Sessions = append(slices.Clone(state.Sessions), profile)
	return profile, nil
}

// Import adopts an existing session id that already has completion history.
func (s *ProfileService) Import(ctx context.Context, state *ProfileState, name, sessionID string) (Profile, error) {
	name, err := normalizeProfileName(name)
	if err != nil {
		return Profile{}, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if !IsSessionID(sessionID) {
		return Profile{}, fmt.Errorf("%w: %q is not a session id", ErrMalformedInput, sessionID)
	}
	if len(state.Sessions) >= MaxProfiles {
		return Profile{}, ErrProfileLimitReached
	}
	if slices.ContainsFunc(state.Sessions, func(p Profile) bool { return p.SessionID == sessionID }) {
		return Profile{}, ErrProfileExists
	}

	exists, err := s.store.Exists(ctx, sessionID)
	if err != nil {
		return Profile{}, err
	}
	if !exists {
		return Profile{}, ErrNoSuchSession
	}

	profile := Profile{ID: s.newID(), Name: name, SessionID: sessionID}
	state.Sessions = append(slices.Clone(state.Sessions), profile)
	return profile, nil
}

// Switch makes the profile with id the only active one.
func (s *ProfileService) Switch(state *ProfileState, id string) error {
	idx := state.index(id)
	if idx == -1 {
		return ErrProfileNotFound
	}

	sessions := slices.Clone(state.Sessions)
	for i := range sessions {
		sessions[i].IsActive = i == idx
	}
	state.Sessions = sessions
	return nil
}

// Rename changes a profile's display name only.
func (s *ProfileService) Rename(state *ProfileState, id, name string) error {
	name, err := normalizeProfileName(name)
	if err != nil {
		return err
	}
	idx := state.index(id)
	if idx == -1 {
		return ErrProfileNotFound
	}

	sessions := slices.Clone(state.Sessions)
	sessions[idx].Name = name
	state.Sessions = sessions
	return nil
}

// Remove drops a profile. When the active profile goes, the first remaining one
// becomes active; the last profile cannot be removed.
func (s *ProfileService) Remove(state *ProfileState, id string) error {
	idx := state.index(id)
	if idx == -1 {
		return ErrProfileNotFound
	}
	if len(state.Sessions) == 1 {
		return ErrLastProfile
	}

	sessions := slices.Delete(slices.Clone(state.Sessions), idx, idx+1)
	next := ProfileState{Version: state.Version, Sessions: sessions}
	next.normalize()
	*state = next
	return nil
}

// SessionIDFor reveals the session id of a profile held by the caller's own cookie.
func (s *ProfileService) SessionIDFor(state ProfileState, id string) (string, error) {
	profile, ok := state.Find(id)
	if !ok {
		return "", ErrProfileNotFound
	}
	return profile.SessionID, nil
}

// IsSessionID reports whether value looks like an id this service generates.
func IsSessionID(value string) bool {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return false
	}
	return parsed.Version() == 4 && parsed.String() == value
}

func normalizeProfileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: profile name is required", ErrMalformedInput)
	}
	if utf8.RuneCountInString(name) > maxProfileNameLength {
		return "", fmt.Errorf("%w: profile name exceeds %d characters", ErrMalformedInput, maxProfileNameLength)
	}
	return name, nil
}
