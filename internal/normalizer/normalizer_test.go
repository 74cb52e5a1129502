package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "Empty", raw: "", want: []string{}},
		{name: "No terminator", raw: "select 1", want: []string{"select 1"}},
		{name: "LF", raw: "a\nb\n", want: []string{"a", "b"}},
		{name: "CRLF", raw: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "Trailing blank line", raw: "a\r\n\r\n", want: []string{"a", ""}},
		{name: "Inner blank line", raw: "a\n\nb", want: []string{"a", "", "b"}},
		{name: "Byte order mark", raw: "\uFEFFcreate procedure Foo\r\n", want: []string{"create procedure Foo"}},
		{name: "Leading whitespace kept", raw: "  a\t\n", want: []string{"  a\t"}},
		{name: "CR only", raw: "create procedure Foo\rselect 1\r", want: []string{"create procedure Foo", "select 1"}},
		{name: "Mixed terminators", raw: "a\r\nb\rc\nd", want: []string{"a", "b", "c", "d"}},
		{name: "CR before CRLF", raw: "a\r\r\nb", want: []string{"a", "", "b"}},
		{name: "Form feed", raw: "a\fb", want: []string{"a", "b"}},
		{name: "Unicode separators", raw: "a\u2028b\u2029c\u0085d", want: []string{"a", "b", "c", "d"}},
		{name: "Only terminator", raw: "\r\n", want: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.raw))
		})
	}
}

func TestStripTerminators(t *testing.T) {
	in := []string{"create procedure Foo\r\n", "as\n", "select 1\r", "end"}
	out := StripTerminators(in)

	assert.Equal(t, []string{"create procedure Foo", "as", "select 1", "end"}, out)
	assert.Equal(t, "as\n", in[1], "input must not be modified")
}

func TestReplaceVars(t *testing.T) {
	lines := []string{"use {DbName}", "select * from {Linked}.{DbName}.dbo.t", "{unknown}"}
	vars := map[string]string{"DbName": "Sales", "Linked": "LNK01"}

	out := ReplaceVars(lines, vars)

	assert.Equal(t, []string{"use Sales", "select * from LNK01.Sales.dbo.t", "{unknown}"}, out)
	assert.Equal(t, "use {DbName}", lines[0], "input must not be modified")
}

func TestReplaceVars_CaseSensitiveKeys(t *testing.T) {
	out := ReplaceVars([]string{"{dbname} {DbName}"}, map[string]string{"DbName": "Sales"})
	assert.Equal(t, []string{"{dbname} Sales"}, out)
}

func TestReplaceVars_Idempotent(t *testing.T) {
	lines := []string{"exec {Linked}.{DbName}.dbo.p", "-- {DbName}"}
	vars := map[string]string{"DbName": "Sales", "Linked": "LNK01"}

	once := ReplaceVars(lines, vars)
	twice := ReplaceVars(once, vars)

	assert.Equal(t, once, twice)
}

func TestReplaceVars_NoVars(t *testing.T) {
	lines := []string{"select '{x}'"}
	assert.Equal(t, lines, ReplaceVars(lines, nil))
}

func TestNormalize(t *testing.T) {
	raw := "CREATE PROCEDURE {Schema}.Foo\r\nAS\r\nSELECT 1\r\n"
	out := Normalize(raw, map[string]string{"Schema": "dbo"})

	assert.Equal(t, []string{"CREATE PROCEDURE dbo.Foo", "AS", "SELECT 1"}, out)
}
