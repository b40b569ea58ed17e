package main

import (
	"fmt"
	"time"

	fcm "github.com/NaySoftware/go-fcm"
	"github.com/hako/durafmt"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// FCMNotifier implements dispatch.Notifier by sending FCM topic messages.
// Delivery failures are logged and dropped, the workflow never waits on FCM
type FCMNotifier struct{}

func notificationTopic(suffix string) string {
	if DEBUG {
		return "/topics/dispatch-debug-" + suffix
	}
	return "/topics/dispatch-" + suffix
}

func sendNotification(topicSuffix string, data map[string]string) {
	if fcmcl == nil {
		// too soon
		return
	}
	fcmcl.NewFcmMsgTo(notificationTopic(topicSuffix), data)
	fcmcl.SetPriority(fcm.Priority_HIGH)
	_, err := fcmcl.Send()
	if err != nil {
		mainLog.Println(err)
	}
}

// RequestAssigned implements dispatch.Notifier
func (FCMNotifier) RequestAssigned(request *dataobjects.PartsRequest, run *dataobjects.RunInstance) {
	mainLog.Println("Sending notification: request " + request.Reference + " assigned")
	sendNotification("assignments", map[string]string{
		"request":   request.ID,
		"reference": request.Reference,
		"run":       run.ID,
		"route":     run.Route.ID,
		"date":      run.ScheduledDate.String(),
		"time":      run.ScheduledTime.HourMinute(),
	})
}

// RequestSplit implements dispatch.Notifier
func (FCMNotifier) RequestSplit(request *dataobjects.PartsRequest, segments []*dataobjects.PartsRequest) {
	mainLog.Println("Sending notification: request " + request.Reference + " split")
	sendNotification("assignments", map[string]string{
		"request":   request.ID,
		"reference": request.Reference,
		"segments":  fmt.Sprint(len(segments)),
	})
}

// RequestNotAvailable implements dispatch.Notifier
func (FCMNotifier) RequestNotAvailable(request *dataobjects.PartsRequest, reason string) {
	mainLog.Println("Sending notification: request " + request.Reference + " not available")
	sendNotification("problems", map[string]string{
		"request":   request.ID,
		"reference": request.Reference,
		"status":    string(request.Status),
		"reason":    reason,
	})
}

// RequestPickedUp implements dispatch.Notifier
func (FCMNotifier) RequestPickedUp(request *dataobjects.PartsRequest) {
	sendNotification("progress", map[string]string{
		"request":   request.ID,
		"reference": request.Reference,
		"status":    string(request.Status),
		"age":       durafmt.Parse(time.Since(request.RequestedAt)).LimitFirstN(2).String(),
	})
}

// RequestDelivered implements dispatch.Notifier
func (FCMNotifier) RequestDelivered(request *dataobjects.PartsRequest) {
	mainLog.Println("Sending notification: request " + request.Reference + " delivered")
	sendNotification("progress", map[string]string{
		"request":   request.ID,
		"reference": request.Reference,
		"status":    string(request.Status),
		"age":       durafmt.Parse(time.Since(request.RequestedAt)).LimitFirstN(2).String(),
	})
}

// RequestReturnCreated implements dispatch.Notifier
func (FCMNotifier) RequestReturnCreated(request *dataobjects.PartsRequest, returnRequest *dataobjects.PartsRequest) {
	mainLog.Println("Sending notification: return " + returnRequest.Reference + " created for " + request.Reference)
	sendNotification("problems", map[string]string{
		"request":   request.ID,
		"reference": request.Reference,
		"return":    returnRequest.ID,
		"returnRef": returnRequest.Reference,
	})
}
