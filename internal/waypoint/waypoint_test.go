package waypoint

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid", Record{ID: 1, Title: "Base"}, false},
		{"zero id allowed", Record{ID: 0, Title: "Base"}, false},
		{"negative id", Record{ID: -1, Title: "Base"}, true},
		{"blank title", Record{ID: 1, Title: "   "}, true},
		{"nan coordinate", Record{ID: 1, Title: "Base", Position: Position{X: math.NaN()}}, true},
		{"inf coordinate", Record{ID: 1, Title: "Base", Position: Position{Z: math.Inf(-1)}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRecord)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSameContentIgnoresEnabled(t *testing.T) {
	a := Record{ID: 1, Title: "Base", Position: Position{1, 2, 3}, Enabled: true}
	b := a
	b.Enabled = false
	assert.True(t, a.SameContent(b))

	b.Title = "Home"
	assert.False(t, a.SameContent(b))
}

func TestRecordString(t *testing.T) {
	rec := Record{ID: 5, Title: "Teleporter", Position: Position{X: 1, Y: 64, Z: -2}}
	assert.Equal(t, `#5 "Teleporter" at 1, 64, -2`, rec.String())
	assert.Equal(t, rec.String(), fmt.Sprintf("%v", rec))
}

func TestReport(t *testing.T) {
	var r Report
	assert.NoError(t, r.Err())
	assert.Equal(t, "0 applied", r.String())

	r.Applied = 2
	r.Skip(7, 3, ErrInvalidRecord)
	r.Merge(Report{Applied: 1, Removed: 1})

	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, "3 applied, 1 removed, 1 failed", r.String())

	err := r.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	var recErr RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, ID(7), recErr.ID)
	assert.Equal(t, 3, recErr.Index)
}
