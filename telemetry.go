package main

import (
	"time"

	"github.com/partsrunner/dispatchd/dataobjects"
	"github.com/partsrunner/dispatchd/dispatch"
	statsd "gopkg.in/alexcesaro/statsd.v2"
)

// APIrequestTelemetry is a channel where something should be sent whenever an API
// request is served
var APIrequestTelemetry = make(chan interface{}, 10)

// assignmentTelemetry receives the outcome of each daily assignment batch
var assignmentTelemetry = make(chan dispatch.BatchSummary, 4)

// StatsSender is meant to be called as a goroutine that handles sending telemetry
// to a statsd (or compatible) server
func StatsSender() {
	statsdAddress, present := secrets.Get("statsdAddress")
	statsdPrefix, present2 := secrets.Get("statsdPrefix")
	if !present || !present2 {
		return
	}

	c, err := statsd.New(statsd.Address(statsdAddress), statsd.Prefix(statsdPrefix))
	if err != nil {
		// If nothing is listening on the target port, an error is returned and
		// the returned client does nothing but is still usable. So we can
		// just log the error and go on.
		mainLog.Println(err)
	}
	defer c.Close()

	ticker := time.NewTicker(1 * time.Minute)

	for {
		select {
		case <-ticker.C:
			segments, err := dataobjects.GetSegmentsNeedingStops(rootSqalxNode)
			if err != nil {
				mainLog.Println(err)
				continue
			}
			c.Gauge("segments_needing_manual", len(segments))
		case summary := <-assignmentTelemetry:
			c.Count("batch_processed", summary.Processed)
			c.Count("batch_assigned", summary.Assigned)
			c.Count("batch_needs_manual", summary.NeedsManual)
			c.Count("batch_errors", summary.Errors)
		case <-APIrequestTelemetry:
			c.Increment("apicalls")
		}
	}
}
