package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordItemsIngested(t *testing.T) {
	tests := []struct {
		name   string
		feedID int64
		count  int
	}{
		{name: "single item", feedID: 1, count: 1},
		{name: "multiple items", feedID: 2, count: 10},
		{name: "zero items", feedID: 3, count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordItemsIngested(tt.feedID, tt.count)
			})
		})
	}
}

func TestRecordItemsDuplicate(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordItemsDuplicate(1, 3)
		RecordItemsDuplicate(1, 0)
	})
}

func TestRecordFeedFetch(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordFeedFetch(1, 250*time.Millisecond, 5, 2)
	})
}

func TestRecordFeedFetchError(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordFeedFetchError(1, "fetch_failed")
		RecordFeedFetchError(1, "parse_failed")
	})
}

func TestUpdateFeedTier(t *testing.T) {
	assert.NotPanics(t, func() {
		UpdateFeedTier(1, 0)
		UpdateFeedTier(1, 10)
	})
}

func TestUpdateItemsTotal(t *testing.T) {
	assert.NotPanics(t, func() {
		UpdateItemsTotal(42)
	})
}

func TestUpdateFeedsTotal(t *testing.T) {
	assert.NotPanics(t, func() {
		UpdateFeedsTotal(7)
	})
}

func TestRecordWebSubLeaseRenewal(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordWebSubLeaseRenewal(true)
		RecordWebSubLeaseRenewal(false)
	})
}

func TestRecordWebSubCallback(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordWebSubCallback("verified")
		RecordWebSubCallback("rejected")
	})
}

func TestRecordWebmentionReceived(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordWebmentionReceived("verified")
		RecordWebmentionReceived("gone")
	})
}

func TestRecordDBQuery(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordDBQuery("select_items", 10*time.Millisecond)
	})
}

func TestUpdateDBConnectionStats(t *testing.T) {
	assert.NotPanics(t, func() {
		UpdateDBConnectionStats(5, 2)
	})
}
