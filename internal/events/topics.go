package events

// Topic names a stream of events. On the AMQP broker it is the routing key.
type Topic string

const (
	TopicJourneyRequested   Topic = "journey-requested"
	TopicJourneyAccepted    Topic = "journey-accepted"
	TopicJourneyStarted     Topic = "journey-started"
	TopicJourneyCompleted   Topic = "journey-completed"
	TopicJourneyCancelled   Topic = "journey-cancelled"
	TopicDriverLocation     Topic = "driver-location"
	TopicDriverStatus       Topic = "driver-status"
	TopicRiderNotification  Topic = "rider-notification"
	TopicDriverNotification Topic = "driver-notification"
)

// Group is a consumer group: a named subscription to a cluster of topics.
type Group struct {
	ID     string
	Topics []Topic
}

var (
	// JourneyLifecycleGroup consumes every journey state change.
	JourneyLifecycleGroup = Group{
		ID: "journey-lifecycle",
		Topics: []Topic{
			TopicJourneyRequested,
			TopicJourneyAccepted,
			TopicJourneyStarted,
			TopicJourneyCompleted,
			TopicJourneyCancelled,
		},
	}

	// DriverEventsGroup consumes driver location and availability updates.
	DriverEventsGroup = Group{
		ID:     "driver-events",
		Topics: []Topic{TopicDriverLocation, TopicDriverStatus},
	}

	// NotificationGroup consumes user-facing notifications.
	NotificationGroup = Group{
		ID:     "notification",
		Topics: []Topic{TopicRiderNotification, TopicDriverNotification},
	}
)

// DefaultGroups returns the consumer groups the dispatcher runs.
func DefaultGroups() []Group {
	return []Group{JourneyLifecycleGroup, DriverEventsGroup, NotificationGroup}
}
