package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Direct(t *testing.T) {
	tests := []struct {
		name  string
		token string
		code  int
		mods  Modifiers
	}{
		{
			name:  "Plain code",
			token: "P1234",
			code:  1234,
		},
		{
			name:  "Interruptible",
			token: "P1234I",
			code:  1234,
			mods:  Modifiers{Interruptible: true},
		},
		{
			name:  "Pausing",
			token: "P0042P",
			code:  42,
			mods:  Modifiers{Pausing: true},
		},
		{
			name:  "Repeating",
			token: "P9000R",
			code:  9000,
			mods:  Modifiers{Repeating: true},
		},
		{
			name:  "Wait for clear",
			token: "P3000W",
			code:  3000,
			mods:  Modifiers{WaitForClear: true},
		},
		{
			name:  "Message combo",
			token: "P1234IM",
			code:  1234,
			mods:  Modifiers{Interruptible: true, Message: true},
		},
		{
			name:  "Pause beats repeat",
			token: "P1234PR",
			code:  1234,
			mods:  Modifiers{Pausing: true},
		},
		{
			name:  "Lowercase p prefix",
			token: "p5555",
			code:  5555,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.token)
			require.NoError(t, err)
			d, ok := cmd.(Direct)
			require.True(t, ok, "expected Direct, got %T", cmd)
			assert.Equal(t, tt.code, d.Code)
			assert.Equal(t, tt.mods, d.Mods)
		})
	}
}

func TestParse_AlternateAtomic(t *testing.T) {
	cmd, err := Parse("P5300i6000")
	require.NoError(t, err)
	a, ok := cmd.(AlternateAtomic)
	require.True(t, ok, "expected AlternateAtomic, got %T", cmd)
	assert.Equal(t, 5300, a.Primary)
	assert.Equal(t, 6000, a.FollowUp)

	// Anything after the second code is ignored.
	cmd, err = Parse("P5300i6000XYZ")
	require.NoError(t, err)
	assert.Equal(t, a, cmd)
}

func TestParse_AlternateSeries(t *testing.T) {
	cmd, err := Parse("P5300RA5400i6000A2801P")
	require.NoError(t, err)
	s, ok := cmd.(AlternateSeries)
	require.True(t, ok, "expected AlternateSeries, got %T", cmd)
	require.Len(t, s.Segments, 3)

	first, ok := s.Segments[0].(Direct)
	require.True(t, ok)
	assert.Equal(t, 5300, first.Code)
	assert.True(t, first.Mods.Repeating)

	second, ok := s.Segments[1].(AlternateAtomic)
	require.True(t, ok)
	assert.Equal(t, 5400, second.Primary)
	assert.Equal(t, 6000, second.FollowUp)

	third, ok := s.Segments[2].(Direct)
	require.True(t, ok)
	assert.Equal(t, 2801, third.Code)
	assert.True(t, third.Mods.Pausing)

	assert.Equal(t, []int{5300, 5400, 2801}, s.Bases())
}

func TestAlternateSeries_KeyIgnoresOrder(t *testing.T) {
	a, err := Parse("P5300A5400")
	require.NoError(t, err)
	b, err := Parse("P5400A5300")
	require.NoError(t, err)
	assert.Equal(t,
		a.(AlternateSeries).Key(),
		b.(AlternateSeries).Key())
}

func TestParse_JoinSeries(t *testing.T) {
	cmd, err := Parse("P1001RJ2002IM")
	require.NoError(t, err)
	j, ok := cmd.(JoinSeries)
	require.True(t, ok, "expected JoinSeries, got %T", cmd)
	require.Len(t, j.Segments, 2)
	assert.True(t, j.OverallMessage)
	assert.Equal(t, 1001, j.Segments[0].Code)
	assert.True(t, j.Segments[0].Mods.Repeating)
	assert.Equal(t, 2002, j.Segments[1].Code)
	assert.True(t, j.Segments[1].Mods.Interruptible)
	assert.False(t, j.Segments[1].Mods.Message)

	cmd, err = Parse("P1001J2002J3003")
	require.NoError(t, err)
	j = cmd.(JoinSeries)
	require.Len(t, j.Segments, 3)
	assert.False(t, j.OverallMessage)
}

func TestParse_PlayFile(t *testing.T) {
	cmd, err := Parse("courtesy-tone.wav")
	require.NoError(t, err)
	assert.Equal(t, PlayFile{Name: "courtesy-tone.wav"}, cmd)
}

func TestParse_Invalid(t *testing.T) {
	for _, token := range []string{
		"",
		"1234",
		"P123",
		"P12345",
		"P1234X",
		"P1234ipqr",
		"PABCD",
		"Q1234",
		"P1001J20",
		"P1001Jxxxx",
		"PA",
	} {
		t.Run(token, func(t *testing.T) {
			_, err := Parse(token)
			assert.ErrorIs(t, err, ErrInvalidCommand)
		})
	}
}
