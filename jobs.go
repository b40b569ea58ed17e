package main

import (
	"time"

	"github.com/rickb777/date"
)

const (
	graphRebuildTries   = 3
	graphRebuildBackoff = 60 * time.Second
)

var graphRebuildRequests = make(chan interface{}, 1)

// RequestRouteGraphRebuild asks the rebuild worker for a full route graph
// cache rebuild. Requests while one is already queued collapse into it
func RequestRouteGraphRebuild() {
	select {
	case graphRebuildRequests <- nil:
	default:
	}
}

// RouteGraphRebuilder is meant to be called as a goroutine that performs
// route graph cache rebuilds on request, retrying with backoff
func RouteGraphRebuilder() {
	for range graphRebuildRequests {
		for try := 1; try <= graphRebuildTries; try++ {
			stats, err := routingService.RebuildCache()
			if err == nil {
				mainLog.Println("Route graph cache rebuilt:", stats.Pairs, "pairs,", stats.Unreachable, "unreachable")
				break
			}
			mainLog.Printf("Route graph rebuild failed (try %d/%d): %s", try, graphRebuildTries, err)
			if try < graphRebuildTries {
				time.Sleep(graphRebuildBackoff)
			}
		}
	}
}

// ScheduledRequestProcessor is meant to be called as a goroutine that runs
// the daily assignment batch every morning
func ScheduledRequestProcessor() {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), DailyAssignmentHour, 0, 0, 0, time.Local)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		time.Sleep(time.Until(next))

		d := date.Today()
		closed, err := calendar.IsDateClosed(d)
		if err != nil {
			mainLog.Println("ScheduledRequestProcessor:", err)
			continue
		}
		if closed {
			mainLog.Println("ScheduledRequestProcessor: closed on", d, ", skipping batch")
			continue
		}
		summary, err := dispatchService.ProcessScheduledRequests(d)
		if err != nil {
			mainLog.Println("ScheduledRequestProcessor:", err)
			continue
		}
		select {
		case assignmentTelemetry <- summary:
		default:
		}
	}
}
