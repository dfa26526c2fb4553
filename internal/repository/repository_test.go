package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
)

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "array", raw: `["A) 1","B) 2"]`, want: []string{"A) 1", "B) 2"}},
		{name: "empty column", raw: ``, want: []string{}},
		{name: "json null", raw: `null`, want: []string{}},
		{name: "not an array", raw: `{"a":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeOptions([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

type sliceRows struct {
	turns  []model.ChatTurn
	i      int
	err    error
	closed bool
}

func (r *sliceRows) Next() bool {
	if r.i >= len(r.turns) {
		return false
	}
	r.i++
	return true
}

func (r *sliceRows) Scan(dest ...any) error {
	t := r.turns[r.i-1]
	*dest[0].(*uuid.UUID) = t.ID
	*dest[1].(*uuid.UUID) = t.UserID
	*dest[2].(*string) = t.SessionID
	*dest[3].(*string) = t.UserMessage
	*dest[4].(*string) = t.AIResponse
	*dest[5].(**string) = t.Topic
	*dest[6].(*time.Time) = t.CreatedAt
	return nil
}

func (r *sliceRows) Err() error { return r.err }
func (r *sliceRows) Close()     { r.closed = true }

func TestScanTurns(t *testing.T) {
	rows := &sliceRows{turns: []model.ChatTurn{
		{ID: uuid.New(), SessionID: "s", UserMessage: "a"},
		{ID: uuid.New(), SessionID: "s", UserMessage: "b"},
	}}
	turns, err := scanTurns(rows)
	if err != nil {
		t.Fatalf("scanTurns() error = %v", err)
	}
	if len(turns) != 2 || turns[1].UserMessage != "b" {
		t.Errorf("turns = %+v", turns)
	}
	if !rows.closed {
		t.Error("rows not closed")
	}

	failing := &sliceRows{err: errors.New("conn closed")}
	if _, err := scanTurns(failing); err == nil {
		t.Error("expected rows error to surface")
	}
}
