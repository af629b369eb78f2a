package paginate

import (
	"context"
	"errors"
	"fmt"
	"sbexport/lib/record"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func rec(id string) record.Record {
	return record.Record{"id": id}
}

func recs(ids ...string) []record.Record {
	out := make([]record.Record, len(ids))
	for i, id := range ids {
		out[i] = rec(id)
	}
	return out
}

func ids(records []record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.String("id")
	}
	return out
}

// tokenSource serves pages keyed by the token they are fetched with.
type tokenSource struct {
	pages  map[Token]Page
	errs   map[Token]error
	tokens []Token
}

func (s *tokenSource) fetch(_ context.Context, token Token) (Page, error) {
	s.tokens = append(s.tokens, token)
	if err, ok := s.errs[token]; ok {
		return Page{}, err
	}
	page, ok := s.pages[token]
	if !ok {
		return Page{}, fmt.Errorf("unexpected token %q", token)
	}
	return page, nil
}

func TestTokenPagerSequence(t *testing.T) {
	source := &tokenSource{pages: map[Token]Page{
		"tokA": {Records: recs("1", "2"), Next: "tokB"},
		"tokB": {Records: recs("3", "4")},
	}}

	var sleeps []time.Duration
	driver := Driver{
		Delay: 500 * time.Millisecond,
		Sleep: func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	}
	state, err := driver.Run(context.Background(), TokenPager{First: "tokA", FetchPage: source.fetch})
	require.NoError(t, err)

	require.Equal(t, []string{"1", "2", "3", "4"}, ids(state.Records))
	require.Equal(t, []Token{"tokA", "tokB"}, source.tokens)
	require.Equal(t, 2, state.Pages)
	require.True(t, state.Done)
	require.False(t, state.Incomplete)
	// no wait before the first fetch.
	require.Equal(t, []time.Duration{500 * time.Millisecond}, sleeps)
}

func TestTokenPagerStopsAtTotal(t *testing.T) {
	source := &tokenSource{pages: map[Token]Page{
		"":   {Records: recs("1", "2"), Next: "t2", Total: 3},
		"t2": {Records: recs("3"), Next: "t3"},
		"t3": {Records: recs("4")},
	}}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), TokenPager{FetchPage: source.fetch})
	require.NoError(t, err)
	require.Equal(t, 3, state.Total)
	require.Equal(t, []string{"1", "2", "3"}, ids(state.Records))
	require.Equal(t, []Token{"", "t2"}, source.tokens)
}

func TestTokenPagerIgnoresMissingTotal(t *testing.T) {
	source := &tokenSource{pages: map[Token]Page{
		"":   {Records: recs("1"), Next: "t2"},
		"t2": {Records: nil, Next: "t3"},
		"t3": {Records: recs("2")},
	}}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), TokenPager{FetchPage: source.fetch})
	require.NoError(t, err)
	require.Equal(t, 0, state.Total)
	require.Equal(t, []string{"1", "2"}, ids(state.Records))
	require.Equal(t, 3, state.Pages)
}

func TestBoundaryDuplicateDropped(t *testing.T) {
	source := &tokenSource{pages: map[Token]Page{
		"":   {Records: recs("1", "2"), Next: "t2"},
		"t2": {Records: recs("2", "3"), Next: "t3"},
		"t3": {Records: recs("3")},
	}}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), TokenPager{FetchPage: source.fetch})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3"}, ids(state.Records))

	for i := 1; i < len(state.Records); i++ {
		require.False(t, record.Equal(state.Records[i-1], state.Records[i]))
	}
}

func TestPartialOnFailure(t *testing.T) {
	broken := errors.New("502 bad gateway")
	source := &tokenSource{
		pages: map[Token]Page{
			"":   {Records: recs("1", "2"), Next: "t2"},
			"t2": {Records: recs("3", "4"), Next: "t3"},
		},
		errs: map[Token]error{"t3": broken},
	}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), TokenPager{FetchPage: source.fetch})
	require.ErrorIs(t, err, broken)
	require.ErrorIs(t, state.Err, broken)
	require.True(t, state.Incomplete)
	require.False(t, state.Done)
	require.Equal(t, 2, state.Pages)
	require.Equal(t, []string{"1", "2", "3", "4"}, ids(state.Records))
}

func TestMaxPages(t *testing.T) {
	fetches := 0
	endless := TokenPager{FetchPage: func(_ context.Context, token Token) (Page, error) {
		fetches++
		return Page{Records: recs(strconv.Itoa(fetches)), Next: Token(strconv.Itoa(fetches))}, nil
	}}

	state, err := Driver{MaxPages: 5, Sleep: noSleep}.Run(context.Background(), endless)
	require.NoError(t, err)
	require.Equal(t, 5, fetches)
	require.Equal(t, 5, state.Pages)
	require.False(t, state.Incomplete)

	fetches = 0
	_, err = Driver{Sleep: noSleep}.Run(context.Background(), endless)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxPages, fetches)
}

func TestCancelledBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := TokenPager{FetchPage: func(_ context.Context, token Token) (Page, error) {
		cancel()
		return Page{Records: recs("1"), Next: "more"}, nil
	}}

	state, err := Driver{Sleep: noSleep}.Run(ctx, source)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, state.Incomplete)
	require.Equal(t, []string{"1"}, ids(state.Records))
}

func TestTrim(t *testing.T) {
	state := RunState{Records: recs("1", "2")}

	if diff := cmp.Diff(recs("3"), state.Trim(recs("2", "3"))); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff(recs("1", "3"), state.Trim(recs("1", "3"))); diff != "" {
		t.Fatal(diff)
	}
	require.Empty(t, RunState{}.Trim(nil))
	require.Equal(t, recs("5"), RunState{}.Trim(recs("5")))
}
