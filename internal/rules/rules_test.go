package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Classify(t *testing.T) {
	table := Default()

	tests := []struct {
		receiver string
		method   string
		want     Disposition
	}{
		{"System.out", "println", IgnoredOutput},
		{"System.out", "print", IgnoredOutput},
		{"System.out", "printf", IgnoredOutput},
		{"System.out", "format", IgnoredOutput},
		{"System.err", "println", IgnoredOutput},
		{"System.err", "write", IgnoredOutput},
		{"System.in", "read", IgnoredInput},
		{"connection", "prepareStatement", ExecutionSink},
		{"connection", "prepareCall", ExecutionSink},
		{"stmt", "executeQuery", ExecutionSink},
		{"stmt", "executeUpdate", ExecutionSink},
		{"stmt", "execute", ExecutionSink},
		{"", "executeQuery", ExecutionSink},
		{"em", "createNativeQuery", ExecutionSink},
		{"jdbcTemplate", "queryForObject", ExecutionSink},
		{"jdbcTemplate", "batchUpdate", ExecutionSink},
		{"stmt", "addBatch", ExecutionSink},
		{"rs", "getString", Unclassified},
		{"logger", "info", Unclassified},
		{"", "println", Unclassified},
	}

	for _, tt := range tests {
		t.Run(tt.receiver+"."+tt.method, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Classify(tt.receiver, tt.method))
		})
	}
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		in   string
		want Rule
	}{
		{"log.info=output", Rule{"log", "info", IgnoredOutput}},
		{"this.jdbc.run=sink", Rule{"this.jdbc", "run", ExecutionSink}},
		{"fetchAll=execution-sink", Rule{"*", "fetchAll", ExecutionSink}},
		{"reader.readLine = ignored-input", Rule{"reader", "readLine", IgnoredInput}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRule(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRule_Errors(t *testing.T) {
	for _, in := range []string{"noequals", "a.b=bogus", "a.[=sink", "=sink"} {
		_, err := ParseRule(in)
		assert.Error(t, err, in)
	}
}

func TestTable_WithOverridesTakePrecedence(t *testing.T) {
	base := Default()
	table, err := base.With(Rule{"System.out", "println", Unclassified}, Rule{"log", "*", IgnoredOutput})
	require.NoError(t, err)

	assert.Equal(t, Unclassified, table.Classify("System.out", "println"))
	assert.Equal(t, IgnoredOutput, table.Classify("log", "debug"))
	assert.Equal(t, IgnoredOutput, base.Classify("System.out", "println"), "base table must not change")
}

func TestTable_IsInputSource(t *testing.T) {
	table := Default()
	assert.True(t, table.IsInputSource("System.in"))
	assert.False(t, table.IsInputSource("System.out"))
	assert.False(t, table.IsInputSource("scanner"))
}

func TestDisposition_RoundTrip(t *testing.T) {
	for _, d := range []Disposition{Unclassified, IgnoredOutput, IgnoredInput, ExecutionSink} {
		got, err := ParseDisposition(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	assert.True(t, IgnoredInput.Ignored())
	assert.False(t, ExecutionSink.Ignored())
}
