package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lightorm/record"
)

func TestParseScalar(t *testing.T) {
	tests := []struct {
		in   string
		want record.Value
	}{
		{"null", record.Null{}},
		{"", record.Null{}},
		{"2010", record.Int(2010)},
		{"-3", record.Int(-3)},
		{"11.2", record.Real(11.2)},
		{"margherita", record.Text("margherita")},
		{"'2010'", record.Text("2010")},
		{"true", record.Int(1)},
		{"2010-01-01", record.Text("2010-01-01")},
		{"2010-01-01 10:00:00", record.Text("2010-01-01 10:00:00")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseScalar(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseScalarRejectsCollections(t *testing.T) {
	for _, in := range []string{"[1, 2]", "{a: 1}", "a: b"} {
		_, err := parseScalar(in)
		assert.Error(t, err, in)
	}
}

func TestParseAssignments(t *testing.T) {
	fields, err := parseAssignments([]string{"date=2010", "site=null", "name=a=b"})
	require.NoError(t, err)
	assert.Equal(t, record.Fields{
		record.F("date", 2010),
		record.F("site", nil),
		record.F("name", "a=b"),
	}, fields)

	fields, err = parseAssignments([]string{"day=2010-01-01", "ts=2010-01-01 10:00:00"})
	require.NoError(t, err)
	assert.Equal(t, record.Fields{
		record.F("day", "2010-01-01"),
		record.F("ts", "2010-01-01 10:00:00"),
	}, fields)

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=1"})
	assert.Error(t, err)
}
