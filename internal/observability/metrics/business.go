package metrics

import (
	"fmt"
	"time"
)

// RecordItemsIngested records the number of items ingested from a feed.
func RecordItemsIngested(feedID int64, count int) {
	if count > 0 {
		ItemsIngestedTotal.WithLabelValues(fmt.Sprintf("%d", feedID)).Add(float64(count))
	}
}

// RecordItemsDuplicate records the number of duplicate items rejected for a feed.
func RecordItemsDuplicate(feedID int64, count int) {
	if count > 0 {
		ItemsDuplicateTotal.WithLabelValues(fmt.Sprintf("%d", feedID)).Add(float64(count))
	}
}

// RecordFeedFetch records metrics for one feed fetch/process cycle.
func RecordFeedFetch(feedID int64, duration time.Duration, ingested, duplicated int) {
	FeedFetchDuration.WithLabelValues(fmt.Sprintf("%d", feedID)).Observe(duration.Seconds())
	RecordItemsIngested(feedID, ingested)
	RecordItemsDuplicate(feedID, duplicated)
}

// RecordFeedFetchError records an error during feed fetch/parse/store.
func RecordFeedFetchError(feedID int64, errorType string) {
	FeedFetchErrors.WithLabelValues(fmt.Sprintf("%d", feedID), errorType).Inc()
}

// UpdateFeedTier updates the tier gauge for one feed.
func UpdateFeedTier(feedID int64, tier int) {
	FeedTierGauge.WithLabelValues(fmt.Sprintf("%d", feedID)).Set(float64(tier))
}

// UpdateItemsTotal updates the total count of items in the database.
func UpdateItemsTotal(count int) {
	ItemsTotal.Set(float64(count))
}

// UpdateFeedsTotal updates the total count of feed subscriptions.
func UpdateFeedsTotal(count int) {
	FeedsTotal.Set(float64(count))
}

// RecordWebSubLeaseRenewal records the outcome of a lease renewal attempt.
func RecordWebSubLeaseRenewal(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	WebSubLeaseRenewalsTotal.WithLabelValues(result).Inc()
}

// RecordWebSubCallback records an inbound WebSub callback by outcome.
func RecordWebSubCallback(result string) {
	WebSubCallbacksTotal.WithLabelValues(result).Inc()
}

// RecordWebmentionReceived records an inbound webmention by verification outcome.
func RecordWebmentionReceived(result string) {
	WebmentionsReceivedTotal.WithLabelValues(result).Inc()
}

// RecordDBQuery records the duration of a database query operation.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
