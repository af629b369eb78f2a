package paginate

import (
	"context"
	"errors"
	"fmt"
	"sbexport/lib/record"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func paidAt(r record.Record) Token {
	return Token(r.String("paidAt"))
}

func orderNumber(r record.Record) string {
	return r.String("orderNumber")
}

func order(number, at string) record.Record {
	return record.Record{"orderNumber": number, "paidAt": at}
}

func TestLastItemStopsOnEmptyPage(t *testing.T) {
	pages := map[Token][]record.Record{
		"now": {order("A1", "t9"), order("A2", "t8")},
		"t8":  {order("A3", "t7"), order("A4", "t6")},
		"t6":  {},
	}
	var cursors []Token
	strategy := LastItem{
		First: "now",
		FetchPage: func(_ context.Context, token Token) (Page, error) {
			cursors = append(cursors, token)
			return Page{Records: pages[token]}, nil
		},
		Cursor:   paidAt,
		Identity: orderNumber,
	}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), strategy)
	require.NoError(t, err)
	require.Equal(t, []Token{"now", "t8", "t6"}, cursors)
	require.Len(t, state.Records, 4)
	require.Equal(t, 3, state.Pages)
}

func TestLastItemDiscardsRepeatedPage(t *testing.T) {
	pages := map[Token][]record.Record{
		"now": {order("A1", "t9"), order("A2", "t8")},
		// the server ignored the cursor and served the same tail again.
		"t8": {order("A1", "t9"), order("A2", "t8")},
	}
	strategy := LastItem{
		First: "now",
		FetchPage: func(_ context.Context, token Token) (Page, error) {
			return Page{Records: pages[token]}, nil
		},
		Cursor:   paidAt,
		Identity: orderNumber,
	}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), strategy)
	require.NoError(t, err)
	require.Equal(t, []string{"A1", "A2"}, []string{orderNumber(state.Records[0]), orderNumber(state.Records[1])})
	require.Len(t, state.Records, 2)
	require.Equal(t, 2, state.Pages)
}

func TestLastItemUnparseableEndsNormally(t *testing.T) {
	calls := 0
	strategy := LastItem{
		First: "now",
		FetchPage: func(_ context.Context, token Token) (Page, error) {
			calls++
			if calls == 2 {
				return Page{}, fmt.Errorf("order page: %w", ErrUnparseable)
			}
			return Page{Records: []record.Record{order("A1", "t1")}}, nil
		},
		Cursor:   paidAt,
		Identity: orderNumber,
	}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), strategy)
	require.NoError(t, err)
	require.False(t, state.Incomplete)
	require.Len(t, state.Records, 1)
}

func TestLastItemFailure(t *testing.T) {
	offline := errors.New("connection reset")
	strategy := LastItem{
		First: "now",
		FetchPage: func(_ context.Context, token Token) (Page, error) {
			if token == "t1" {
				return Page{}, offline
			}
			return Page{Records: []record.Record{order("A1", "t1")}}, nil
		},
		Cursor:   paidAt,
		Identity: orderNumber,
	}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), strategy)
	require.ErrorIs(t, err, offline)
	require.True(t, state.Incomplete)
	require.Len(t, state.Records, 1)
}

type fakeSurface struct {
	heights  []int64
	scrolls  int
	rewound  bool
	metricAt int
	err      error
}

func (s *fakeSurface) Advance(context.Context) error {
	s.scrolls++
	return nil
}

func (s *fakeSurface) Metric(context.Context) (int64, error) {
	if s.err != nil && s.metricAt == s.scrolls {
		return 0, s.err
	}
	i := s.scrolls - 1
	if i >= len(s.heights) {
		i = len(s.heights) - 1
	}
	return s.heights[i], nil
}

func (s *fakeSurface) Rewind(context.Context) error {
	s.rewound = true
	return nil
}

func TestGrowthStopsWhenStable(t *testing.T) {
	surface := &fakeSurface{heights: []int64{1000, 2000, 2600, 2600, 3000}}
	var settles []time.Duration
	strategy := Growth{
		Surface:      surface,
		Settle:       1500 * time.Millisecond,
		RewindSettle: time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			settles = append(settles, d)
			return nil
		},
		Extract: func(context.Context) ([]record.Record, error) {
			return recs("o1", "o2", "o3"), nil
		},
	}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), strategy)
	require.NoError(t, err)
	require.Equal(t, 4, surface.scrolls)
	require.True(t, surface.rewound)
	require.Equal(t, []string{"o1", "o2", "o3"}, ids(state.Records))
	require.Equal(t, []time.Duration{
		1500 * time.Millisecond,
		1500 * time.Millisecond,
		1500 * time.Millisecond,
		1500 * time.Millisecond,
		time.Second,
	}, settles)
}

func TestGrowthEmptySurface(t *testing.T) {
	surface := &fakeSurface{heights: []int64{0}}
	strategy := Growth{
		Surface: surface,
		Sleep:   noSleep,
		Extract: func(context.Context) ([]record.Record, error) { return nil, nil },
	}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), strategy)
	require.NoError(t, err)
	require.Equal(t, 1, surface.scrolls)
	require.Empty(t, state.Records)
}

func TestGrowthExtractsOnFailure(t *testing.T) {
	gone := errors.New("target closed")
	surface := &fakeSurface{heights: []int64{100, 200, 300}, metricAt: 2, err: gone}
	strategy := Growth{
		Surface: surface,
		Sleep:   noSleep,
		Extract: func(context.Context) ([]record.Record, error) {
			return recs("o1"), nil
		},
	}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), strategy)
	require.ErrorIs(t, err, gone)
	require.True(t, state.Incomplete)
	require.True(t, surface.rewound)
	require.Equal(t, []string{"o1"}, ids(state.Records))
}

func TestNextButton(t *testing.T) {
	pages := [][]record.Record{recs("1", "2"), recs("3"), recs("4", "5")}
	shown := 0
	strategy := NextButton{
		Extract: func(context.Context) ([]record.Record, error) {
			return pages[shown], nil
		},
		Next: func(context.Context) (bool, error) {
			if shown == len(pages)-1 {
				return false, nil
			}
			shown++
			return true, nil
		},
	}

	var sleeps int
	driver := Driver{Delay: time.Second, Sleep: func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}}
	state, err := driver.Run(context.Background(), strategy)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(state.Records))
	require.Equal(t, 3, state.Pages)
	require.Equal(t, 2, sleeps)
}

func TestNextButtonClickFailureKeepsPage(t *testing.T) {
	detached := errors.New("node detached")
	strategy := NextButton{
		Extract: func(context.Context) ([]record.Record, error) {
			return recs("1", "2"), nil
		},
		Next: func(context.Context) (bool, error) {
			return false, detached
		},
	}

	state, err := Driver{Sleep: noSleep}.Run(context.Background(), strategy)
	require.ErrorIs(t, err, detached)
	require.True(t, state.Incomplete)
	require.Equal(t, []string{"1", "2"}, ids(state.Records))
}

// cancellingSurface cancels the run once it has scrolled `after` times.
type cancellingSurface struct {
	fakeSurface
	after  int
	cancel context.CancelFunc
}

func (s *cancellingSurface) Advance(ctx context.Context) error {
	s.scrolls++
	if s.scrolls == s.after {
		s.cancel()
	}
	return nil
}

func TestGrowthExtractsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	surface := &cancellingSurface{
		fakeSurface: fakeSurface{heights: []int64{100, 200, 300, 400}},
		after:       2,
		cancel:      cancel,
	}
	var extractErr error
	strategy := Growth{
		Surface: surface,
		Sleep:   noSleep,
		Extract: func(ctx context.Context) ([]record.Record, error) {
			extractErr = ctx.Err()
			return recs("o1", "o2"), nil
		},
	}

	state, err := Driver{Sleep: noSleep}.Run(ctx, strategy)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, state.Incomplete)
	require.True(t, surface.rewound)
	require.NoError(t, extractErr)
	require.Equal(t, []string{"o1", "o2"}, ids(state.Records))
}
