package dispatch

import (
	"github.com/partsrunner/dispatchd/dataobjects"
)

// Notifier is told about request lifecycle milestones. Implementations must
// not block for long and must swallow their own delivery failures, workflow
// outcomes never depend on notification delivery
type Notifier interface {
	RequestAssigned(request *dataobjects.PartsRequest, run *dataobjects.RunInstance)
	RequestSplit(request *dataobjects.PartsRequest, segments []*dataobjects.PartsRequest)
	RequestNotAvailable(request *dataobjects.PartsRequest, reason string)
	RequestPickedUp(request *dataobjects.PartsRequest)
	RequestDelivered(request *dataobjects.PartsRequest)
	RequestReturnCreated(request *dataobjects.PartsRequest, returnRequest *dataobjects.PartsRequest)
}

// NopNotifier discards every notification
type NopNotifier struct{}

// RequestAssigned implements Notifier
func (NopNotifier) RequestAssigned(request *dataobjects.PartsRequest, run *dataobjects.RunInstance) {
}

// RequestSplit implements Notifier
func (NopNotifier) RequestSplit(request *dataobjects.PartsRequest, segments []*dataobjects.PartsRequest) {
}

// RequestNotAvailable implements Notifier
func (NopNotifier) RequestNotAvailable(request *dataobjects.PartsRequest, reason string) {}

// RequestPickedUp implements Notifier
func (NopNotifier) RequestPickedUp(request *dataobjects.PartsRequest) {}

// RequestDelivered implements Notifier
func (NopNotifier) RequestDelivered(request *dataobjects.PartsRequest) {}

// RequestReturnCreated implements Notifier
func (NopNotifier) RequestReturnCreated(request *dataobjects.PartsRequest, returnRequest *dataobjects.PartsRequest) {
}
