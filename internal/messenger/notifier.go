package messenger

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Notifier bridges engine events onto the queue for external observers and
// indexers. Handlers take interface{} so they can be registered as event
// listeners.
type Notifier interface {
	NotifyListingCreated(msg interface{})
	NotifyListingUpdated(msg interface{})
	NotifyListingRemoved(msg interface{})
	NotifyNftSold(msg interface{})
}

type notifier struct {
	messenger MessageService
}

func NewNotifier(messenger MessageService) Notifier {
	return notifier{messenger}
}

func (n notifier) NotifyListingCreated(msg interface{}) {
	n.publish(ListingCreated, msg)
}

func (n notifier) NotifyListingUpdated(msg interface{}) {
	n.publish(ListingUpdated, msg)
}

func (n notifier) NotifyListingRemoved(msg interface{}) {
	n.publish(ListingRemoved, msg)
}

func (n notifier) NotifyNftSold(msg interface{}) {
	n.publish(NftSold, msg)
}

func (n notifier) publish(item Item, msg interface{}) {
	body, err := json.Marshal(msg)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", string(item))).Error("Notifier: Failed to encode message")
		return
	}

	if err := n.messenger.SendMessage(item, body); err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", string(item))).Error("Notifier: Failed to publish message")
	}
}
