// Package notifications posts article lifecycle events to an ntfy topic.
//
// NewService returns a noop Service when notifications.ntfy_topic is empty,
// so callers never need to check whether notifications are configured.
package notifications
