package services

import "time"

// timestampLayout pins a fixed-width fractional second. Message order, the
// GroupMessages sort key and the lastMessageTime guard all compare stored
// strings, so lexicographic order must equal chronological order;
// RFC3339Nano trims trailing zeros and breaks that equivalence.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatStamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func nowStamp() string {
	return formatStamp(time.Now())
}
