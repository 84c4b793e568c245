package usecase

import (
	"testing"
	"time"

	"agency-cms/internal/visitor/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_Match(t *testing.T) {
	engine, err := NewSegmentEngine()
	require.NoError(t, err)

	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	rec := &model.VisitorRecord{
		VisitorID:    "abc",
		VisitCount:   4,
		LastVisit:    now.Add(-72 * time.Hour),
		Status:       model.StatusContacted,
		PagesVisited: []model.PageVisit{{Path: "/pricing"}, {Path: "/contact"}},
		Location:     &model.Location{Country: "DE"},
		Device:       &model.DeviceInfo{Type: "mobile"},
		ContactInfo:  &model.ContactInfo{Email: "lead@example.com"},
		RawStorageData: model.StorageSnapshot{
			LocalStorage: map[string]string{"plan": "pro"},
		},
	}

	cases := []struct {
		expr string
		want bool
	}{
		{`visitCount >= 3 && country == "DE"`, true},
		{`status == "new"`, false},
		{`"/pricing" in pages && pageCount == 2`, true},
		{`hasContact && email.endsWith("@example.com")`, true},
		{`daysSinceLastVisit >= 3`, true},
		{`deviceType == "desktop"`, false},
		{`localStorage["plan"] == "pro"`, true},
		{`cookies["missing"] == "x"`, false},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			seg, err := engine.Compile(tc.expr, now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, seg.Match(rec))
		})
	}
}

func TestSegment_CompileErrors(t *testing.T) {
	engine, err := NewSegmentEngine()
	require.NoError(t, err)

	_, err = engine.Compile("unknownVar == 1", time.Now())
	assert.Error(t, err)

	_, err = engine.Compile(`status`, time.Now())
	assert.EqualError(t, err, "segment expression must evaluate to a boolean")
}
