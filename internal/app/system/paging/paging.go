// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the number of rows returned by paged list endpoints.
// Kept as an int because call sites do arithmetic on it before casting
// to int64 for Mongo's SetLimit.
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64. List queries fetch one
// extra document so TrimPage can tell whether another page exists.
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseStart extracts the 1-based "start" query parameter, defaulting
// to 1 when absent or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Result holds the output of TrimPage.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims a slice fetched with LimitPlusOne down to PageSize,
// in place, and reports which neighbor pages exist.
//
// Paging backwards (before != ""): an overlong slice means an older
// page exists, so the first element is dropped; HasNext is always true
// because we arrived from a later page.
//
// Paging forwards or on the first page: an overlong slice means a next
// page exists, so the tail is dropped; HasPrev is true only when an
// "after" cursor was supplied.
func TrimPage[T any](rows *[]T, before, after string) Result {
	orig := len(*rows)
	var hasPrev, hasNext bool

	if before != "" {
		if orig > PageSize {
			*rows = (*rows)[1:]
			hasPrev = true
		}
		hasNext = true
	} else {
		if orig > PageSize {
			*rows = (*rows)[:PageSize]
			hasNext = true
		}
		hasPrev = after != ""
	}

	return Result{HasPrev: hasPrev, HasNext: hasNext}
}

// Range holds display-range values for a paginated list.
type Range struct {
	Start     int // 1-based start index (0 if no results)
	End       int // 1-based end index (0 if no results)
	PrevStart int // start value for the previous page link
	NextStart int // start value for the next page link
}

// ComputeRange calculates the display range given the current start
// index and the number of items shown.
func ComputeRange(start, shown int) Range {
	if shown == 0 {
		return Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}
	}

	prevStart := start - PageSize
	if prevStart < 1 {
		prevStart = 1
	}

	return Range{
		Start:     start,
		End:       start + shown - 1,
		PrevStart: prevStart,
		NextStart: start + shown,
	}
}

// Direction indicates which way a keyset query walks the sort order.
type Direction int

const (
	Forward  Direction = iota // ascending sort, cursor compares with $gt
	Backward                  // descending sort, cursor compares with $lt
)

// KeysetConfig is the decoded state of a keyset-paginated request.
type KeysetConfig struct {
	Direction Direction
	SortOrder int // 1 ascending, -1 descending
	Cursor    *wafflemongo.Cursor
}

// ConfigureKeyset decodes the before/after cursors and picks the query
// direction. "before" wins when both are present.
func ConfigureKeyset(before, after string) KeysetConfig {
	cfg := KeysetConfig{
		Direction: Forward,
		SortOrder: 1,
	}

	if before != "" {
		cfg.Direction = Backward
		cfg.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(before); ok {
			cfg.Cursor = &c
		}
	} else if after != "" {
		if c, ok := wafflemongo.DecodeCursor(after); ok {
			cfg.Cursor = &c
		}
	}

	return cfg
}

// ApplyToFind sets the sort and look-ahead limit on a Find. The _id
// tiebreak keeps the order total when sortField repeats.
func (cfg KeysetConfig) ApplyToFind(find *options.FindOptions, sortField string) {
	find.SetSort(bson.D{
		{Key: sortField, Value: cfg.SortOrder},
		{Key: "_id", Value: cfg.SortOrder},
	}).SetLimit(LimitPlusOne())
}

// KeysetWindow returns the cursor condition for the query filter, or
// nil when no cursor is set.
func (cfg KeysetConfig) KeysetWindow(sortField string) bson.M {
	if cfg.Cursor == nil {
		return nil
	}
	dir := "gt"
	if cfg.Direction == Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, cfg.Cursor.CI, cfg.Cursor.ID)
}

// Reverse reverses rows in place. Needed after a backward query to
// restore display order.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors creates prev/next cursor strings from the first and
// last rows of the trimmed page.
func BuildCursors[T any](rows []T, keyFn func(T) string, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	first := rows[0]
	last := rows[len(rows)-1]
	prev = wafflemongo.EncodeCursor(keyFn(first), idFn(first))
	next = wafflemongo.EncodeCursor(keyFn(last), idFn(last))
	return prev, next
}
