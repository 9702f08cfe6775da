package ws

import "log"

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) SubmissionReceived(owner, filename string) {
	n.send(EventTypeSubmissionReceived, SubmissionPayload{Owner: owner, Filename: filename})
}

func (n *HubNotifier) SubmissionPublished(owner, filename, actor string) {
	n.send(EventTypeSubmissionAccepted, SubmissionPayload{Owner: owner, Filename: filename, Actor: actor})
}

func (n *HubNotifier) SubmissionDenied(owner, filename, actor string) {
	n.send(EventTypeSubmissionDenied, SubmissionPayload{Owner: owner, Filename: filename, Actor: actor})
}

func (n *HubNotifier) SubmissionRemoved(owner, filename, actor string) {
	n.send(EventTypeSubmissionRemoved, SubmissionPayload{Owner: owner, Filename: filename, Actor: actor})
}

func (n *HubNotifier) send(eventType string, payload SubmissionPayload) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.Broadcast(evt)
}
