package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "no secrets", in: "loadctl.db", want: "loadctl.db"},
		{
			name: "url userinfo",
			in:   "postgres://etl:s3cret@db:5432/wh?sslmode=disable",
			want: "postgres://[REDACTED]@db:5432/wh?sslmode=disable",
		},
		{
			name: "sqlserver keyword password",
			in:   "sqlserver://db?database=wh;user id=etl;password=hunter2",
			want: "sqlserver://db?database=wh;user id=etl;password=[REDACTED]",
		},
		{
			name: "azure connection string",
			in:   "DefaultEndpointsProtocol=https;AccountName=acct;AccountKey=abc+/==;EndpointSuffix=core.windows.net",
			want: "DefaultEndpointsProtocol=https;AccountName=acct;AccountKey=[REDACTED];EndpointSuffix=core.windows.net",
		},
		{
			name: "snowflake bare userinfo",
			in:   "etl:pw@myorg-acct/DB/PUBLIC?warehouse=WH",
			want: "etl:[REDACTED]@myorg-acct/DB/PUBLIC?warehouse=WH",
		},
		{
			name: "mysql tcp",
			in:   "etl:pw@tcp(db:3306)/wh",
			want: "etl:[REDACTED]@tcp(db:3306)/wh",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SanitizeDSN(tt.in))
		})
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", SanitizeError(nil))
	err := errors.New("dial postgres://etl:pw@db/wh: refused")
	assert.Equal(t, "dial postgres://[REDACTED]@db/wh: refused", SanitizeError(err))
}

func TestNew(t *testing.T) {
	t.Parallel()

	l, err := New("debug", "json")
	assert.NoError(t, err)
	assert.NotNil(t, l)

	_, err = New("chatty", "console")
	assert.Error(t, err)

	assert.NotNil(t, OrNop(nil))
}
