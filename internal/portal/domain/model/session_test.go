package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewSession(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s, err := NewSession("tok", "", now)
	require.NoError(t, err)
	assert.Equal(t, "bearer", s.TokenType)
	assert.Equal(t, "Bearer tok", s.Authorization())
	assert.False(t, s.HasProfile())

	_, err = NewSession("", "bearer", now)
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestSession_MergeKeepsPriorFields(t *testing.T) {
	now := time.Now()
	s := &Session{AccessToken: "t", Role: RolePatient}

	merged := s.Merge(ProfilePatch{FullName: strPtr("A")}, now)

	assert.Equal(t, "t", merged.AccessToken)
	assert.Equal(t, RolePatient, merged.Role)
	assert.Equal(t, "A", merged.FullName)
	assert.True(t, merged.HasProfile())
	assert.Empty(t, s.FullName, "merge must not mutate the receiver")
}

func TestSession_MergeOverwritesPresentFields(t *testing.T) {
	doctor := RoleDoctor
	s := &Session{AccessToken: "t", Role: RolePatient, Email: "old@x.com"}

	merged := s.Merge(ProfilePatch{Role: &doctor, Email: strPtr("e@x.com"), Specialization: strPtr("Radiology")}, time.Now())

	assert.Equal(t, RoleDoctor, merged.Role)
	assert.Equal(t, "e@x.com", merged.Email)
	assert.Equal(t, "Radiology", merged.Specialization)
}

func TestSession_CloneIsDeep(t *testing.T) {
	exp := time.Now()
	s := &Session{AccessToken: "t", ExpiresAt: &exp}
	c := s.Clone()
	*c.ExpiresAt = exp.Add(time.Hour)
	assert.Equal(t, exp, *s.ExpiresAt)

	var nilSession *Session
	assert.Nil(t, nilSession.Clone())
}

func TestSession_Initial(t *testing.T) {
	assert.Equal(t, "U", (&Session{}).Initial())
	assert.Equal(t, "É", (&Session{FullName: "Élodie Martin"}).Initial())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("doctor")
	assert.True(t, ok)
	assert.Equal(t, RoleDoctor, r)
	assert.Equal(t, "Doctor Portal", r.Portal())

	_, ok = ParseRole("admin")
	assert.False(t, ok)
	assert.Equal(t, "Patient Portal", Role("admin").Portal())
}

func TestResolution_Dashboard(t *testing.T) {
	cases := []struct {
		name string
		res  Resolution
		want Role
	}{
		{"resolved doctor", Resolution{State: StateResolved, Role: RoleDoctor, SessionPresent: true}, RoleDoctor},
		{"resolved patient", Resolution{State: StateResolved, Role: RolePatient, SessionPresent: true}, RolePatient},
		{"profile failed", Resolution{State: StateError, SessionPresent: true}, RolePatient},
		{"anonymous", Resolution{State: StateResolved}, RolePatient},
		{"unknown role", Resolution{State: StateResolved, Role: "admin", SessionPresent: true}, RolePatient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.res.Dashboard())
		})
	}

	assert.True(t, Resolution{State: StateResolved}.Anonymous())
	assert.False(t, Resolution{State: StateError, SessionPresent: true}.Anonymous())
	assert.True(t, StateError.Terminal())
	assert.False(t, StateLoading.Terminal())
}

func TestFindDoctor(t *testing.T) {
	d, ok := FindDoctor(2)
	require.True(t, ok)
	assert.Equal(t, "Dr. Michael Chen", d.Name)

	d, ok = FindDoctor(3)
	require.True(t, ok)
	assert.False(t, d.Available)

	_, ok = FindDoctor(42)
	assert.False(t, ok)
}

func TestTimestamp_AcceptsNaiveDatetimes(t *testing.T) {
	var rec PredictionRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","created_at":"2025-01-02T03:04:05.123456"}`), &rec))
	assert.Equal(t, 2025, rec.CreatedAt.Year())
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())

	require.NoError(t, json.Unmarshal([]byte(`{"created_at":"2025-01-02T03:04:05+02:00"}`), &rec))
	assert.Equal(t, 1, rec.CreatedAt.Hour())

	assert.Error(t, json.Unmarshal([]byte(`{"created_at":"yesterday"}`), &rec))
}
