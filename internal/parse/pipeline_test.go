package parse

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubOracle struct {
	candidates []Candidate
	err        error
	calls      int
}

func (s *stubOracle) Extract(ctx context.Context, text string) ([]Candidate, error) {
	s.calls++

	return s.candidates, s.err
}

func newTestParser(oracle Oracle, minResults int) *Parser {
	logger := zerolog.Nop()

	return NewParser(NewExtractor(decimal.NewFromInt(10000)), oracle, minResults, &logger)
}

func TestParseMessageSkipsOracleWhenConfident(t *testing.T) {
	oracle := &stubOracle{}
	parser := newTestParser(oracle, 3)

	text := "AKPC Grade One      14900\n" +
		"AKPC Grade Two      15000\n" +
		"AKPC Grade Three    15100\n" +
		"AKPC Grade Four     15200"

	results, err := parser.ParseMessage(context.Background(), text)

	require.NoError(t, err)
	require.Len(t, results, 4)
	require.Zero(t, oracle.calls, "oracle must not run when pattern matching is confident")
}

func TestParseMessageOracleResultsReplaceDeterministic(t *testing.T) {
	oracle := &stubOracle{candidates: []Candidate{
		{Name: "Uz-Kor Gas J150", Price: "14900"},
		{Name: "Shurtan By456", Price: "15400"},
	}}
	parser := newTestParser(oracle, 3)

	results, err := parser.ParseMessage(context.Background(), "J150 around 14900, By456 a bit higher at 15400")

	require.NoError(t, err)
	require.Equal(t, 1, oracle.calls)
	require.Len(t, results, 2)
	require.Equal(t, "j150", results[0].NormalizedName)
	require.Equal(t, "by456", results[1].NormalizedName)
}

func TestParseMessageRevalidatesOracleOutput(t *testing.T) {
	oracle := &stubOracle{candidates: []Candidate{
		{Name: "Uz-Kor Gas J150", Price: "14900"},
		{Name: "Uz-Kor Gas Jm370", Price: "37000"}, // digit collision
		{Name: "AKPC", Price: "9000"},              // below floor
		{Name: "J150", Price: "15100"},             // duplicate of the first
	}}
	parser := newTestParser(oracle, 3)

	results, err := parser.ParseMessage(context.Background(), "free-form message")

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "j150", results[0].NormalizedName)
}

func TestParseMessageTransientOracleErrorDegrades(t *testing.T) {
	oracle := &stubOracle{err: errors.New("connection reset")}
	parser := newTestParser(oracle, 3)

	results, err := parser.ParseMessage(context.Background(), "free-form message")

	require.NoError(t, err)
	require.Empty(t, results)
}

func TestParseMessageAuthErrorPropagates(t *testing.T) {
	oracle := &stubOracle{err: fmt.Errorf("status 401: %w", ErrAuth)}
	parser := newTestParser(oracle, 3)

	_, err := parser.ParseMessage(context.Background(), "free-form message")

	require.ErrorIs(t, err, ErrAuth)
}

func TestParseMessageNilOracleReturnsDeterministic(t *testing.T) {
	parser := newTestParser(nil, 3)

	results, err := parser.ParseMessage(context.Background(), "Uz-Kor Gas J150              14900")

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "j150", results[0].NormalizedName)
}
