package paginate

import (
	"context"
	"errors"
	"sbexport/lib/record"
)

// Token is an opaque continuation value, "" means there is none.
type Token string

// ErrUnparseable marks a response that could not be read as a page. the
// LastItem strategy treats it as the end of the data.
var ErrUnparseable = errors.New("page could not be parsed")

// Page is the result of one fetch.
type Page struct {
	Records []record.Record
	Next    Token
	// Total is the record count reported by the source, 0 if unknown.
	Total int
	// Exhausted is set when the source signals there is nothing more.
	Exhausted bool
}

// Step is a strategy's verdict on a fetched page. Keep holds the records
// to accumulate, boundary duplicates are dropped by the driver.
type Step struct {
	Keep []record.Record
	Next Token
	Done bool
}

// Strategy decides how pages are fetched and when the walk stops.
type Strategy interface {
	Start() Token
	Fetch(ctx context.Context, token Token) (Page, error)
	Advance(state RunState, page Page) Step
}

// Finisher is implemented by strategies that only produce records once
// paging has stopped, it is called on success and on failure.
type Finisher interface {
	Finish(ctx context.Context) ([]record.Record, error)
}

// RunState is the progress of a single run.
type RunState struct {
	Records []record.Record
	Token   Token
	Pages   int
	Total   int
	Done    bool
	// Incomplete is set when the run stopped on an error, Records then
	// holds whatever was gathered before it.
	Incomplete bool
	Err        error
}

// Last returns the most recently accumulated record.
func (s RunState) Last() (record.Record, bool) {
	if len(s.Records) == 0 {
		return nil, false
	}
	return s.Records[len(s.Records)-1], true
}

// Trim drops the first of `records` when it repeats the last accumulated
// record, which happens when a source's pages overlap by one.
func (s RunState) Trim(records []record.Record) []record.Record {
	last, ok := s.Last()
	if !ok || len(records) == 0 {
		return records
	}
	if record.Equal(last, records[0]) {
		return records[1:]
	}
	return records
}

func (s *RunState) append(records []record.Record) (kept int, dropped int) {
	trimmed := s.Trim(records)
	s.Records = append(s.Records, trimmed...)
	return len(trimmed), len(records) - len(trimmed)
}
