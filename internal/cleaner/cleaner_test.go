package cleaner

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "bom and crlf", in: "\uFEFFid,name\r\n1,Ann\r\n", want: "id,name\n1,Ann\n"},
		{name: "lone cr", in: "id,name\r1,Ann\r", want: "id,name\n1,Ann\n"},
		{name: "trims fields", in: "id , name\n 1 ,Ann  \n", want: "id,name\n1,Ann\n"},
		{name: "null tokens", in: "id,v\n1,NULL\n2,null\n3,Null\n", want: "id,v\n1,\n2,\n3,Null\n"},
		{name: "blank rows dropped", in: "id,v\n,\n1,a\n , \n\n2,b\n", want: "id,v\n1,a\n2,b\n"},
		{name: "control chars", in: "id,v\n1,a\x01b\x7f\n", want: "id,v\n1,ab\n"},
		{name: "embedded newline kept quoted", in: "id,v\n1,\"a\nb\"\n", want: "id,v\n1,\"a\nb\"\n"},
		{name: "bare quote tolerated", in: "id,v\n1,5\" pipe\n", want: "id,v\n1,\"5\"\" pipe\"\n"},
		{name: "ragged rows kept", in: "a,b\n1\n1,2,3\n", want: "a,b\n1\n1,2,3\n"},
		{name: "leading blank line before header", in: "\n,,\nid\n1\n", want: "id\n1\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Clean([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestClean_Latin1Fallback(t *testing.T) {
	t.Parallel()

	// "café" in Latin-1: the é is the single byte 0xE9.
	raw := []byte("name\ncaf\xe9\n")
	c := New(Options{}, nil)

	res, err := c.Parse(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "latin-1", res.Stats.Encoding)
	assert.Equal(t, [][]string{{"café"}}, res.Rows)
}

func TestClean_ControlBytesNeverFail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{name: "cp1252 smart quotes", in: []byte("id,note\n1,\x93quoted\x94\n"), want: "id,note\n1,quoted\n"},
		{name: "latin-1 with c1 byte", in: []byte("id,city\n1,caf\xe9\x80\n"), want: "id,city\n1,café\n"},
		{name: "nul byte", in: []byte("id,note\n1,a\x00b\n"), want: "id,note\n1,ab\n"},
		{name: "utf-16le bytes", in: []byte{0xFF, 0xFE, 'i', 0, 'd', 0, '\n', 0, '1', 0, '\n', 0}, want: "ÿþid\n1\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			once, err := Clean(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(once))

			twice, err := Clean(once)
			require.NoError(t, err)
			assert.Equal(t, string(once), string(twice))
		})
	}
}

func TestClean_CustomNullTokens(t *testing.T) {
	t.Parallel()

	c := New(Options{NullTokens: []string{"N/A", "-"}}, nil)
	got, err := c.Clean([]byte("id,v\n1,N/A\n2,-\n3,NULL\n"))
	require.NoError(t, err)
	assert.Equal(t, "id,v\n1,\n2,\n3,NULL\n", string(got))
}

func TestClean_Semicolon(t *testing.T) {
	t.Parallel()

	c := New(Options{Comma: ';'}, nil)
	got, err := c.Clean([]byte("id;v\r\n1; a \r\n"))
	require.NoError(t, err)
	assert.Equal(t, "id;v\n1;a\n", string(got))
}

func TestParse_PrimaryKey(t *testing.T) {
	t.Parallel()

	raw := "Order ID,Line,amount\n1,1,10\n1,1,11\n,2,12\n2,1,13\n1,2,14\n"

	res, err := New(Options{}, nil).Parse([]byte(raw), []string{"order id", "line"})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"1", "1", "10"}, {"2", "1", "13"}, {"1", "2", "14"}}, res.Rows)
	assert.Equal(t, 1, res.Stats.NullKeyRows)
	assert.Equal(t, 1, res.Stats.DuplicateRows)
	assert.Equal(t, 2, res.Stats.Dropped())
}

func TestParse_PrimaryKeyMissingColumn(t *testing.T) {
	t.Parallel()

	res, err := New(Options{}, nil).Parse([]byte("id,v\n1,a\n1,b\n"), []string{"uuid"})
	require.NoError(t, err)
	assert.Equal(t, []string{"uuid"}, res.Stats.MissingKeyCols)
	assert.Len(t, res.Rows, 2, "rows are untouched when the key column is absent")
}

// TestClean_Idempotent applies Clean twice to handwritten and generated
// inputs and expects the second pass to change nothing.
func TestClean_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"\n\n\n",
		"a\n",
		"\uFEFFa,b\r\n1, 2 \r\n\r\n,\r\n",
		"a,b\n\"x\ny\",\"q\"\"q\"\n",
		"a,b\n\" lead\",trail \n",
		"a\n\\.\n",
		"a,b\n\"unterminated,1\n",
		"x,\"y\nNULL,\t\n",
		"h\ncaf\xe9\n",
	}

	rng := rand.New(rand.NewSource(7))
	alphabet := []string{"a", "b", ",", "\"", "\n", "\r", " ", "\t", "NULL", "null", "\x00", "\x02", "é", "\uFEFF", "\\."}
	for i := 0; i < 300; i++ {
		var b strings.Builder
		for j := rng.Intn(40); j > 0; j-- {
			b.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		inputs = append(inputs, b.String())
	}

	for _, in := range inputs {
		once, err := Clean([]byte(in))
		require.NoErrorf(t, err, "first pass failed for %q", in)
		twice, err := Clean(once)
		require.NoErrorf(t, err, "second pass failed for %q", in)
		require.Equalf(t, string(once), string(twice), "not idempotent for input %q", in)
	}
}

func TestResult_RenameHeaderThenDedupe(t *testing.T) {
	t.Parallel()

	res, err := New(Options{}, nil).Parse([]byte("Cust No,Name\n7,a\n7,b\n"), nil)
	require.NoError(t, err)

	res.RenameHeader(map[string]string{"cust no": "customer_id", "Missing": "x"})
	assert.Equal(t, []string{"customer_id", "Name"}, res.Header)

	res.DedupeByKey([]string{"customer_id"})
	assert.Equal(t, [][]string{{"7", "a"}}, res.Rows)
	assert.Equal(t, 1, res.Stats.DuplicateRows)
}
