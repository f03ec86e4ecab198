package suiteql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "abc", "'abc'"},
		{"single quote doubled", "O'Brien", "'O''Brien'"},
		{"injection attempt", "x' OR '1'='1", "'x'' OR ''1''=''1'"},
		{"empty", "", "''"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Quote(tt.input))
		})
	}
}

func TestConditions(t *testing.T) {
	tests := []struct {
		name     string
		cond     Condition
		expected string
	}{
		{"eq", Eq("isperson", "F"), "isperson = 'F'"},
		{"eq fold lowers value", EqFold("email", "A@X.com"), "LOWER(email) = 'a@x.com'"},
		{"like escapes wildcards", Like("itemid", "50%_OFF"), `LOWER(itemid) LIKE '%50\%\_off%' ESCAPE '\'`},
		{"in", In("externalid", "WEB_1", "WEB_2"), "externalid IN ('WEB_1', 'WEB_2')"},
		{"is null", IsNull("parent"), "parent IS NULL"},
		{"or", Or(Eq("a", "1"), Eq("b", "2")), "(a = '1' OR b = '2')"},
		{"and single collapses", And(Eq("a", "1")), "a = '1'"},
		{"and skips empty", And(Condition{}, Eq("a", "1"), Eq("b", "2")), "(a = '1' AND b = '2')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.cond.Err())
			assert.Equal(t, tt.expected, tt.cond.String())
		})
	}
}

func TestConditions_Errors(t *testing.T) {
	assert.ErrorIs(t, Eq("email; DROP", "x").Err(), ErrInvalidIdentifier)
	assert.ErrorIs(t, In("id").Err(), ErrEmptyList)
	assert.ErrorIs(t, Or(Eq("a", "1"), Eq("1bad", "2")).Err(), ErrInvalidIdentifier)
}

func TestQuery_Build(t *testing.T) {
	q, err := Select("id", "companyname", "email").
		From("customer").
		Where(Eq("isperson", "F"), Or(EqFold("email", "a@x.com"), Eq("phone", "555"))).
		OrderBy("id").
		Build()

	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, companyname, email FROM customer WHERE isperson = 'F' AND (LOWER(email) = 'a@x.com' OR phone = '555') ORDER BY id",
		q)
}

func TestQuery_BuildOrderByDesc(t *testing.T) {
	q, err := Select("id").From("customer").Where(Eq("isperson", "T")).OrderByDesc("id").Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM customer WHERE isperson = 'T' ORDER BY id DESC", q)

	_, err = Select("id").From("customer").OrderByDesc("id desc").Build()
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestQuery_BuildWithDisplayAndIn(t *testing.T) {
	q, err := Select("id", "tranid").
		Display("status", "statusname").
		From("transaction").
		Where(In("externalid", "WEB_1")).
		Build()

	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, tranid, BUILTIN.DF(status) AS statusname FROM transaction WHERE externalid IN ('WEB_1')",
		q)
}

func TestQuery_BuildErrors(t *testing.T) {
	_, err := Select("id").From("customer x").Build()
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = Select("id").From("customer").Where(In("id")).Build()
	assert.ErrorIs(t, err, ErrEmptyList)

	_, err = Select().From("customer").Build()
	assert.Error(t, err)

	assert.Panics(t, func() { Select("id").MustBuild() })
}
