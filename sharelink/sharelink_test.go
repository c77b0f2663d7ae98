package sharelink

import (
	"net/url"
	"strings"
	"testing"

	"github.com/billbatista/splitmate/ledger"
	lzstring "github.com/daku10/go-lz-string"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(t *testing.T) ledger.Event {
	t.Helper()
	e := ledger.NewEvent("Lisbon trip", "EUR")
	e, alice, err := e.AddParticipant("Alice")
	require.NoError(t, err)
	e, bob, err := e.AddParticipant("Bob")
	require.NoError(t, err)
	e, _, err = e.AddExpense(ledger.NewExpenseInput{
		Description: "Dinner",
		Amount:      90,
		PayerID:     alice.ID,
		Split:       ledger.EqualSplit{},
	})
	require.NoError(t, err)
	e, _, err = e.AddExpense(ledger.NewExpenseInput{
		Description: "Taxi",
		Amount:      30,
		PayerID:     bob.ID,
		Split: ledger.PercentSplit{Portions: []ledger.Portion{
			{ParticipantID: alice.ID, Value: 25},
			{ParticipantID: bob.ID, Value: 75},
		}},
	})
	require.NoError(t, err)
	return e
}

func TestEncodeDecode(t *testing.T) {
	e := sampleEvent(t)

	token, err := Encode(e)
	require.NoError(t, err)
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "?")
	assert.NotContains(t, token, "%")

	decoded, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, e.Title, decoded.Title)
	assert.Equal(t, e.Participants, decoded.Participants)
	require.Len(t, decoded.Expenses, 2)
	for i := range e.Expenses {
		assert.Equal(t, e.Expenses[i].ID, decoded.Expenses[i].ID)
		assert.Equal(t, e.Expenses[i].Split, decoded.Expenses[i].Split)
		assert.True(t, e.Expenses[i].CreatedAt.Equal(decoded.Expenses[i].CreatedAt))
	}

	want, err := ledger.Settle(e)
	require.NoError(t, err)
	got, err := ledger.Settle(decoded)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEncodeIsDeterministic(t *testing.T) {
	e := sampleEvent(t)

	first, err := Encode(e)
	require.NoError(t, err)
	second, err := Encode(e)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "bad escape", token: "%%%not-a-token%%%"},
		{name: "not json", token: compress(t, "plain text")},
		{name: "missing id", token: compress(t, `{"title":"No id"}`)},
		{name: "too large", token: strings.Repeat("A", maxTokenSize+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func compress(t *testing.T, s string) string {
	t.Helper()
	token, err := lzstring.CompressToEncodedURIComponent(s)
	require.NoError(t, err)
	return token
}

// A share link from the web app carries the lz-string token run through
// encodeURIComponent, with amounts and percents on the split entries.
func TestDecodeWebAppLink(t *testing.T) {
	state := `{
		"id": "e1",
		"title": "Ski weekend",
		"currency": "NTD",
		"participants": [{"id":"p1","name":"Mei"},{"id":"p2","name":"Jun"},{"id":"p3","name":"Lin"}],
		"expenses": [
			{"id":"x2","description":"Lift passes","amount":300,"payerId":"p2","splitMethod":"custom",
			 "splits":[{"participantId":"p1","amount":100},{"participantId":"p3","amount":200}],"createdAt":1700000100000},
			{"id":"x1","description":"Cabin","amount":900,"payerId":"p1","splitMethod":"percent",
			 "splits":[{"participantId":"p1","percent":50},{"participantId":"p2","percent":25},{"participantId":"p3","percent":25}],"createdAt":1700000000000}
		]
	}`
	link := "https://split.example.com/?s=" + url.QueryEscape(compress(t, state))

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	escaped := strings.TrimPrefix(parsed.RawQuery, "s=")

	for name, token := range map[string]string{
		"escaped":   escaped,
		"unescaped": parsed.Query().Get("s"),
	} {
		t.Run(name, func(t *testing.T) {
			e, err := Decode(token)
			require.NoError(t, err)
			assert.Equal(t, "Ski weekend", e.Title)
			assert.Equal(t, "NTD", e.Currency)
			require.Len(t, e.Expenses, 2)
			assert.Equal(t, ledger.CustomSplit{Portions: []ledger.Portion{
				{ParticipantID: "p1", Value: 100},
				{ParticipantID: "p3", Value: 200},
			}}, e.Expenses[0].Split)
			assert.Equal(t, int64(1700000000000), e.Expenses[1].CreatedAt.UnixMilli())

			settlement, err := ledger.Settle(e)
			require.NoError(t, err)
			assert.Equal(t, []ledger.Balance{
				{ParticipantID: "p1", Amount: 350},
				{ParticipantID: "p2", Amount: 75},
				{ParticipantID: "p3", Amount: -425},
			}, settlement.Balances)
			assert.Equal(t, []ledger.Transfer{
				{FromID: "p3", ToID: "p1", Amount: 350},
				{FromID: "p3", ToID: "p2", Amount: 75},
			}, settlement.Transfers)
		})
	}
}

func TestDigest(t *testing.T) {
	e := sampleEvent(t)

	d1, err := Digest(e)
	require.NoError(t, err)
	assert.Len(t, d1, 64)

	d2, err := Digest(e)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	changed := e.WithMeta("Porto trip", "")
	d3, err := Digest(changed)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestDecodeFillsEmptyCollections(t *testing.T) {
	e := ledger.Event{ID: "evt-1", Title: "Empty", Currency: "USD"}

	token, err := Encode(e)
	require.NoError(t, err)

	decoded, err := Decode(token)
	require.NoError(t, err)
	assert.NotNil(t, decoded.Participants)
	assert.NotNil(t, decoded.Expenses)
}
