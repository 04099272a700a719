package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	schema "github.com/hanpama/querytrainer/internal/schema"
)

type userSet map[string]bool

func (u userSet) HasUser(id string) bool { return u[id] }

var testUsers = userSet{"USER01": true, "USER02": true}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty", "", ErrEmptyQuery},
		{"whitespace", "  \n\t ", ErrEmptyQuery},
		{"no brace", `orders(userId: "USER01") { id }`, ErrMustStartWithBrace},
		{"named operation", `query { orders(userId: "USER01") { id } }`, ErrMustStartWithBrace},
		{"mutation", `{ mutation { orders(userId: "USER01") { id } } }`, ErrWriteNotAllowed},
		{"mutation any case", `{ MUTATION orders(userId: "USER01") { id } }`, ErrWriteNotAllowed},
		{"unknown root", `{ products { id } }`, ErrUnsupportedRoot},
		{"orders without call", `{ orders { id } }`, ErrUnsupportedRoot},
		{"unbalanced", `{ orders(userId: "USER01") { id }`, ErrUnbalancedBraces},
		{"ok orders", `  { orders(userId: "USER01") { id } }`, nil},
		{"ok users", `{ users { id } }`, nil},
		{"mutations word is not mutation", `{ orders(userId: "USER01") { mutations } }`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.text)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckFirstFailureWins(t *testing.T) {
	// both missing brace and unbalanced; the earlier rule decides
	err := Check(`mutation { orders(userId: "USER01") {`)
	require.ErrorIs(t, err, ErrMustStartWithBrace)

	// a bare mutation operation fails on the brace rule before the write rule
	err = Check(`mutation { orders(userId: "USER01") { id } }`)
	require.ErrorIs(t, err, ErrMustStartWithBrace)

	err = Check(`{ mutation { orders(userId: "USER01") { id } } }`)
	require.ErrorIs(t, err, ErrWriteNotAllowed)
}

func TestDetectRoot(t *testing.T) {
	require.Equal(t, schema.RootOrders, DetectRoot(`{ orders(userId: "USER01") { id } }`))
	require.Equal(t, schema.RootUsers, DetectRoot(`{ users { id } }`))
}

func TestValidateArgs(t *testing.T) {
	text := `{ orders(userId: "USER01", delivered: true, country: 'Kazakhstan', offset: 2, limit: "3") { id } }`
	args, err := ValidateArgs(text, schema.RootOrders, testUsers)
	require.NoError(t, err)
	require.Equal(t, "USER01", *args.UserID)
	require.True(t, *args.Delivered)
	require.Equal(t, "Kazakhstan", *args.Country)
	require.Equal(t, 2, *args.Offset)
	require.Equal(t, 3, *args.Limit)

	want := map[string]string{
		"userId": "USER01", "delivered": "true", "country": "Kazakhstan", "offset": "2", "limit": "3",
	}
	if diff := cmp.Diff(want, args.Raw); diff != "" {
		t.Fatalf("raw args mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateArgsOptional(t *testing.T) {
	args, err := ValidateArgs(`{ orders(userId: "USER02") { id } }`, schema.RootOrders, testUsers)
	require.NoError(t, err)
	require.Nil(t, args.Delivered)
	require.Nil(t, args.Country)
	require.Nil(t, args.Offset)
	require.Nil(t, args.Limit)
	require.False(t, args.Has(ArgLimit))
}

func TestValidateArgsDeliveredOtherValueIgnored(t *testing.T) {
	args, err := ValidateArgs(`{ orders(userId: "USER01", delivered: yes) { id } }`, schema.RootOrders, testUsers)
	require.NoError(t, err)
	require.Nil(t, args.Delivered)
	require.True(t, args.Has(ArgDelivered))
}

func TestValidateArgsNegativeAndHuge(t *testing.T) {
	args, err := ValidateArgs(`{ orders(userId: "USER01", offset: -4, limit: 99999999999999999999999) { id } }`, schema.RootOrders, testUsers)
	require.NoError(t, err)
	require.Equal(t, -4, *args.Offset)
	require.Greater(t, *args.Limit, 1<<30)
}

func TestValidateArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"no args", `{ orders() { id } }`, ErrMissingUserID},
		{"other args only", `{ orders(limit: 2) { id } }`, ErrMissingUserID},
		{"unknown user", `{ orders(userId: "UNKNOWN") { id } }`, ErrUnknownUser},
		{"unknown user single quotes", `{ orders(userId: 'nobody') { id } }`, ErrUnknownUser},
		{"word limit", `{ orders(userId: "USER01", limit: "abc") { id } }`, ErrNonNumericPaginationArg},
		{"fraction offset", `{ orders(userId: "USER01", offset: 1.5) { id } }`, ErrNonNumericPaginationArg},
		{"empty limit", `{ orders(userId: "USER01", limit: ) { id } }`, ErrNonNumericPaginationArg},
		{"nested limit", `{ orders(userId: "USER01") { items(limit: x) { name } } }`, ErrNonNumericPaginationArg},
		{"glued suffix", `{ orders(userId: "USER01", limit: 3abc) { id } }`, ErrNonNumericPaginationArg},
		{"hex offset", `{ orders(userId: "USER01", offset: 0x10) { id } }`, ErrNonNumericPaginationArg},
		{"two numbers", `{ orders(userId: "USER01", limit: 2 3) { id } }`, ErrNonNumericPaginationArg},
		{"glued key", `{ orders(userId: "USER01", limit: 3offset: 1) { id } }`, ErrNonNumericPaginationArg},
		{"quoted then junk", `{ orders(userId: "USER01", limit: "3" x) { id } }`, ErrNonNumericPaginationArg},
		{"orders not at top level", `{ x { orders(userId: "USER01") { id } } }`, ErrUnsupportedRoot},
		{"orders absent", `{ users { id } }`, ErrUnsupportedRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateArgs(tt.text, schema.RootOrders, testUsers)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateArgsSeparators(t *testing.T) {
	args, err := ValidateArgs(`{ orders(userId: USER02 limit: 3 offset:1, country: "Russia") { id } }`, schema.RootOrders, testUsers)
	require.NoError(t, err)
	require.Equal(t, "USER02", *args.UserID)
	require.Equal(t, 3, *args.Limit)
	require.Equal(t, 1, *args.Offset)
	require.Equal(t, "Russia", *args.Country)
}

func TestUnknownUserCarriesID(t *testing.T) {
	_, err := ValidateArgs(`{ orders(userId: "UNKNOWN") { id } }`, schema.RootOrders, testUsers)
	var qe *Error
	require.True(t, errors.As(err, &qe))
	require.Equal(t, KindUnknownUser, qe.Kind)
	require.Equal(t, "UNKNOWN", qe.Detail)
	require.Contains(t, qe.Message, "UNKNOWN")
}

func TestValidateArgsUsersRoot(t *testing.T) {
	args, err := ValidateArgs(`{ users { id } }`, schema.RootUsers, testUsers)
	require.NoError(t, err)
	require.Empty(t, args.Raw)
}

func TestExtract(t *testing.T) {
	s := schema.Trainer()
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "flat",
			text: `{ orders(userId: "USER01") { id date status } }`,
			want: "{id date status}",
		},
		{
			name: "nested",
			text: `{ orders(userId: "USER01") { id delivery { type address { city country } } } }`,
			want: "{id delivery{type address{city country}}}",
		},
		{
			name: "arguments and strings are not fields",
			text: `{ orders(userId: "USER01", country: "id total", limit: 2) { id } }`,
			want: "{id}",
		},
		{
			name: "comments skipped",
			text: "{ orders(userId: \"USER01\") {\n # total\n id\n} }",
			want: "{id}",
		},
		{
			name: "duplicates merged",
			text: `{ orders(userId: "USER01") { delivery { type } id delivery { delivered type } } }`,
			want: "{delivery{type delivered} id}",
		},
		{
			name: "unknown fields kept",
			text: `{ orders(userId: "USER01") { id colour } }`,
			want: "{id colour}",
		},
		{
			name: "commas ignored",
			text: `{ orders(userId: "USER01") { id, date, } }`,
			want: "{id date}",
		},
		{
			name: "users root",
			text: `{ users { id name } }`,
			want: "{id name}",
		},
		{
			name: "field named like an argument",
			text: `{ orders(userId: "USER01") { delivery { delivered address { country } } } }`,
			want: "{delivery{delivered address{country}}}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, ok := Extract(s, tt.text, DetectRoot(tt.text))
			require.True(t, ok)
			if diff := cmp.Diff(tt.want, node.String()); diff != "" {
				t.Fatalf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractRootMissing(t *testing.T) {
	_, ok := Extract(schema.Trainer(), `{ orders(userId: "USER01") { id } }`, schema.RootUsers)
	require.False(t, ok)
}

func TestFieldRequestNodeQueries(t *testing.T) {
	node, _ := Extract(schema.Trainer(), `{ orders(userId: "USER01") { total id delivery { address { zip } } } }`, schema.RootOrders)

	require.Equal(t, []string{"total", "id", "delivery"}, node.Names())
	require.Equal(t, []string{"delivery", "delivery.address", "delivery.address.zip", "id", "total"}, node.Paths())
	require.True(t, node.Has("delivery.address.zip"))
	require.False(t, node.Has("delivery.type"))

	delivery, ok := node.Child("delivery")
	require.True(t, ok)
	require.True(t, delivery.HasSelection())

	other, _ := Extract(schema.Trainer(), `{ orders(userId: "USER02") { id delivery { address { zip } } total } }`, schema.RootOrders)
	require.True(t, node.Equal(other))

	fewer, _ := Extract(schema.Trainer(), `{ orders(userId: "USER02") { id total } }`, schema.RootOrders)
	require.False(t, node.Equal(fewer))
}

func TestPrepare(t *testing.T) {
	s := schema.Trainer()

	req, err := Prepare(s, testUsers, `{ orders(userId: "USER01", limit: 3) { id } }`, "")
	require.NoError(t, err)
	require.Equal(t, schema.RootOrders, req.Root)
	require.Equal(t, 3, *req.Args.Limit)
	require.Equal(t, []string{"id"}, req.Fields.Names())

	_, err = Prepare(s, testUsers, `{ users { id } }`, schema.RootOrders)
	require.ErrorIs(t, err, ErrUnsupportedRoot)

	_, err = Prepare(s, testUsers, `{ orders(userId: "USER01") { id } }`, schema.RootUsers)
	require.ErrorIs(t, err, ErrUnsupportedRoot)

	_, err = Prepare(s, testUsers, `{ mutation { x } }`, "")
	require.ErrorIs(t, err, ErrWriteNotAllowed)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scan(`{ orders(userId: "USER01`)
	last := toks[len(toks)-2]
	require.Equal(t, tokString, last.kind)
	require.Equal(t, "USER01", last.text)
	require.Equal(t, tokEOF, toks[len(toks)-1].kind)
}
